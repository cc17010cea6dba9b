package valuationEngine

import (
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
)

// Rebalance computes trades that bring every position to its target weight of
// totalValue+investment. Target weights are not required to sum to 1.
//
// A position without a price cannot be traded and is always reported as HOLD.
func Rebalance(valued []model.ValuedPosition, totalValue, investment decimal.Decimal) ([]model.RebalancingRow, error) {
	if investment.IsNegative() {
		return nil, ErrNegativeInvestment
	}

	newTotal := totalValue.Add(investment)
	rows := make([]model.RebalancingRow, 0, len(valued))

	for _, position := range valued {
		targetValue := newTotal.Mul(position.TargetWeight)
		difference := targetValue.Sub(position.CurrentValue)

		units := decimal.Zero
		if position.CurrentPrice.IsPositive() {
			units = difference.Div(position.CurrentPrice)
		}

		rows = append(rows, model.RebalancingRow{
			ValuedPosition: position,
			TargetValue:    targetValue,
			Difference:     difference,
			UnitsToTrade:   units,
			Action:         actionFor(units),
		})
	}

	return rows, nil
}

func actionFor(units decimal.Decimal) model.Action {
	switch units.Sign() {
	case 1:
		return model.ActionBuy
	case -1:
		return model.ActionSell
	default:
		return model.ActionHold
	}
}
