package model

import "github.com/shopspring/decimal"

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

type RebalancingRow struct {
	ValuedPosition
	TargetValue  decimal.Decimal
	Difference   decimal.Decimal
	UnitsToTrade decimal.Decimal
	Action       Action
}
