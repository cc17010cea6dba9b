package valuationEngine

import "errors"

var (
	ErrAlreadyRecorded    = errors.New("error history already recorded for date")
	ErrNegativeInvestment = errors.New("error investment amount is negative")
)
