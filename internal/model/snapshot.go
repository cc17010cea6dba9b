package model

import "github.com/shopspring/decimal"

// Snapshot is the result of one load/fetch/compute cycle.
type Snapshot struct {
	Date               string
	Positions          []ValuedPosition
	TotalValue         decimal.Decimal
	Daily              DailyMetrics
	Allocation         []CategoryAllocation
	TargetWeights      WeightCheck
	Investment         decimal.Decimal
	Rebalancing        []RebalancingRow
	History            []HistoryRecord
	UnavailableTickers []string
}

// RawPositions returns the positions without computed fields, in the original order.
func (s Snapshot) RawPositions() []Position {
	res := make([]Position, 0, len(s.Positions))
	for _, p := range s.Positions {
		res = append(res, p.Position)
	}
	return res
}
