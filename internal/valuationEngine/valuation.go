// Package valuationEngine holds the portfolio arithmetic: valuation, weights,
// rebalancing and the history time series rules. Everything here is pure.
package valuationEngine

import (
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
)

// Value joins positions with prices. A ticker without a price (or with a
// negative one) is valued at zero instead of failing the whole computation.
func Value(positions []model.Position, prices map[string]decimal.Decimal) ([]model.ValuedPosition, decimal.Decimal) {
	valued := make([]model.ValuedPosition, 0, len(positions))
	total := decimal.Zero

	for _, position := range positions {
		price, ok := prices[position.Ticker]
		if !ok || price.IsNegative() {
			price = decimal.Zero
		}

		value := position.Quantity.Mul(price)
		total = total.Add(value)

		valued = append(valued, model.ValuedPosition{
			Position:     position,
			CurrentPrice: price,
			CurrentValue: value,
		})
	}

	// при нулевой сумме все веса остаются нулевыми
	if total.IsPositive() {
		for i := range valued {
			valued[i].CurrentWeight = valued[i].CurrentValue.Div(total)
		}
	}

	return valued, total
}

// AllocationByCategory sums values per category in first-seen order.
func AllocationByCategory(valued []model.ValuedPosition, totalValue decimal.Decimal) []model.CategoryAllocation {
	res := make([]model.CategoryAllocation, 0)
	idx := make(map[string]int)

	for _, position := range valued {
		i, ok := idx[position.Category]
		if !ok {
			i = len(res)
			idx[position.Category] = i
			res = append(res, model.CategoryAllocation{Category: position.Category})
		}
		res[i].Value = res[i].Value.Add(position.CurrentValue)
	}

	if totalValue.IsPositive() {
		for i := range res {
			res[i].Weight = res[i].Value.Div(totalValue)
		}
	}

	return res
}

// CheckTargetWeights reports whether target weights sum to 1 within tolerance.
func CheckTargetWeights(positions []model.Position, tolerance decimal.Decimal) model.WeightCheck {
	sum := decimal.Zero
	for _, position := range positions {
		sum = sum.Add(position.TargetWeight)
	}

	return model.WeightCheck{
		Sum:      sum,
		Balanced: sum.Sub(decimal.NewFromInt(1)).Abs().LessThanOrEqual(tolerance.Abs()),
	}
}
