package model

import "github.com/shopspring/decimal"

// Position is one row of the Portfolio table.
type Position struct {
	Ticker       string
	Name         string
	Category     string
	Quantity     decimal.Decimal
	TargetWeight decimal.Decimal
}

// ValuedPosition is a Position joined with its current price.
type ValuedPosition struct {
	Position
	CurrentPrice  decimal.Decimal
	CurrentValue  decimal.Decimal
	CurrentWeight decimal.Decimal
}

type CategoryAllocation struct {
	Category string
	Value    decimal.Decimal
	Weight   decimal.Decimal
}

type WeightCheck struct {
	Sum      decimal.Decimal
	Balanced bool
}
