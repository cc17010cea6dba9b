package model

type State int

const (
	DefaultState State = iota
	ExpectingInvestmentAmount
	ExpectingReportAmount
)

type Session struct {
	State State
}
