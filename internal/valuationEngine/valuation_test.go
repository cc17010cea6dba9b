package valuationEngine

import (
	"testing"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Scenario(t *testing.T) {
	positions := []model.Position{
		position("A", "Theme", "10", "0.5"),
		position("B", "Domestic", "20", "0.5"),
	}

	valued, total := Value(positions, prices("A", "100", "B", "200"))

	require.Len(t, valued, 2)
	assertDecimal(t, "5000", total)
	assertDecimal(t, "1000", valued[0].CurrentValue)
	assertDecimal(t, "4000", valued[1].CurrentValue)
	assertDecimal(t, "0.2", valued[0].CurrentWeight)
	assertDecimal(t, "0.8", valued[1].CurrentWeight)
	assert.Equal(t, "A", valued[0].Ticker)
	assert.Equal(t, "B name", valued[1].Name)
}

func TestValue_EmptyInput(t *testing.T) {
	valued, total := Value(nil, prices("A", "100"))

	assert.Empty(t, valued)
	assert.True(t, total.IsZero())
}

func TestValue_Additivity(t *testing.T) {
	tests := []struct {
		name      string
		positions []model.Position
		prices    map[string]decimal.Decimal
	}{
		{
			name: "fractional quantities",
			positions: []model.Position{
				position("360750", "Theme", "85.72653", "0.1"),
				position("456780", "Theme", "298.8439", "0.3"),
				position("005930", "Domestic", "10", "0.2"),
				position("SPY", "US Market", "5", "0.4"),
			},
			prices: prices("360750", "9875", "456780", "12040", "005930", "71000", "SPY", "512.34"),
		},
		{
			name: "zero quantity",
			positions: []model.Position{
				position("A", "x", "0", "0.5"),
				position("B", "x", "3", "0.5"),
			},
			prices: prices("A", "10", "B", "7"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valued, total := Value(tt.positions, tt.prices)

			sum := decimal.Zero
			weights := decimal.Zero
			for i, p := range tt.positions {
				sum = sum.Add(p.Quantity.Mul(tt.prices[p.Ticker]))
				weights = weights.Add(valued[i].CurrentWeight)
			}

			assert.True(t, sum.Equal(total), "total %s != sum %s", total, sum)
			assert.InDelta(t, 1.0, weights.InexactFloat64(), 1e-9)
		})
	}
}

func TestValue_MissingPrice(t *testing.T) {
	positions := []model.Position{
		position("005930", "Domestic", "10", "0.5"),
		position("SPY", "US", "5", "0.5"),
	}

	valued, total := Value(positions, prices("SPY", "500"))

	assert.True(t, valued[0].CurrentPrice.IsZero())
	assert.True(t, valued[0].CurrentValue.IsZero())
	assert.True(t, valued[0].CurrentWeight.IsZero())
	assertDecimal(t, "2500", total)
	assertDecimal(t, "1", valued[1].CurrentWeight)
}

func TestValue_NegativePriceTreatedAsUnavailable(t *testing.T) {
	valued, total := Value([]model.Position{position("A", "x", "2", "1")}, prices("A", "-5"))

	assert.True(t, valued[0].CurrentPrice.IsZero())
	assert.True(t, total.IsZero())
}

func TestValue_ZeroTotal(t *testing.T) {
	positions := []model.Position{
		position("A", "x", "10", "0.5"),
		position("B", "x", "20", "0.5"),
	}

	valued, total := Value(positions, prices("A", "0", "B", "0"))

	assert.True(t, total.IsZero())
	for _, v := range valued {
		assert.True(t, v.CurrentWeight.IsZero())
	}
}

func TestAllocationByCategory(t *testing.T) {
	positions := []model.Position{
		position("A", "Theme", "10", "0.25"),
		position("B", "Domestic", "10", "0.25"),
		position("C", "Theme", "10", "0.5"),
	}
	valued, total := Value(positions, prices("A", "100", "B", "200", "C", "100"))

	allocation := AllocationByCategory(valued, total)

	require.Len(t, allocation, 2)
	assert.Equal(t, "Theme", allocation[0].Category)
	assertDecimal(t, "2000", allocation[0].Value)
	assertDecimal(t, "0.5", allocation[0].Weight)
	assert.Equal(t, "Domestic", allocation[1].Category)
	assertDecimal(t, "0.5", allocation[1].Weight)
}

func TestAllocationByCategory_ZeroTotal(t *testing.T) {
	valued, total := Value([]model.Position{position("A", "Theme", "1", "1")}, nil)

	allocation := AllocationByCategory(valued, total)

	require.Len(t, allocation, 1)
	assert.True(t, allocation[0].Weight.IsZero())
}

func TestCheckTargetWeights(t *testing.T) {
	tolerance := dec("0.0001")

	tests := []struct {
		name     string
		weights  []string
		balanced bool
		sum      string
	}{
		{name: "exact", weights: []string{"0.1", "0.3", "0.2", "0.4"}, balanced: true, sum: "1"},
		{name: "within tolerance", weights: []string{"0.33333", "0.33333", "0.33334"}, balanced: true, sum: "1"},
		{name: "under allocated", weights: []string{"0.5", "0.3"}, balanced: false, sum: "0.8"},
		{name: "over allocated", weights: []string{"0.7", "0.7"}, balanced: false, sum: "1.4"},
		{name: "empty", weights: nil, balanced: false, sum: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			positions := make([]model.Position, 0, len(tt.weights))
			for _, w := range tt.weights {
				positions = append(positions, position("X", "x", "1", w))
			}

			check := CheckTargetWeights(positions, tolerance)

			assert.Equal(t, tt.balanced, check.Balanced)
			assertDecimal(t, tt.sum, check.Sum)
		})
	}
}
