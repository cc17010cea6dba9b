package valuationEngine

import (
	"testing"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebalance_Scenario(t *testing.T) {
	valued, total := Value([]model.Position{
		position("A", "x", "10", "0.5"),
		position("B", "x", "20", "0.5"),
	}, prices("A", "100", "B", "200"))

	rows, err := Rebalance(valued, total, dec("1000"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assertDecimal(t, "3000", rows[0].TargetValue)
	assertDecimal(t, "3000", rows[1].TargetValue)
	assertDecimal(t, "2000", rows[0].Difference)
	assertDecimal(t, "-1000", rows[1].Difference)
	assertDecimal(t, "20", rows[0].UnitsToTrade)
	assertDecimal(t, "-5", rows[1].UnitsToTrade)
	assert.Equal(t, model.ActionBuy, rows[0].Action)
	assert.Equal(t, model.ActionSell, rows[1].Action)
}

func TestRebalance_Closure(t *testing.T) {
	valued, total := Value([]model.Position{
		position("A", "x", "3", "0.2"),
		position("B", "x", "7.5", "0.3"),
		position("C", "x", "1", "0.5"),
		position("D", "x", "4", "0"),
	}, prices("A", "33.3", "B", "12", "C", "250"))

	rows, err := Rebalance(valued, total, dec("150"))
	require.NoError(t, err)

	for _, row := range rows {
		assert.True(t, row.Difference.Equal(row.TargetValue.Sub(row.CurrentValue)), row.Ticker)

		switch row.UnitsToTrade.Sign() {
		case 1:
			assert.Equal(t, model.ActionBuy, row.Action, row.Ticker)
		case -1:
			assert.Equal(t, model.ActionSell, row.Action, row.Ticker)
		default:
			assert.Equal(t, model.ActionHold, row.Action, row.Ticker)
		}
	}
}

func TestRebalance_MissingPriceIsHold(t *testing.T) {
	valued, total := Value([]model.Position{
		position("005930", "x", "10", "0.9"),
		position("SPY", "x", "1", "0.1"),
	}, prices("SPY", "100"))

	rows, err := Rebalance(valued, total, dec("100000"))
	require.NoError(t, err)

	assert.True(t, rows[0].Difference.IsPositive())
	assert.True(t, rows[0].UnitsToTrade.IsZero())
	assert.Equal(t, model.ActionHold, rows[0].Action)
}

func TestRebalance_ExactTargetIsHold(t *testing.T) {
	valued, total := Value([]model.Position{
		position("A", "x", "10", "0.5"),
		position("B", "x", "5", "0.5"),
	}, prices("A", "100", "B", "200"))

	rows, err := Rebalance(valued, total, decimal.Zero)
	require.NoError(t, err)

	for _, row := range rows {
		assert.True(t, row.UnitsToTrade.IsZero())
		assert.Equal(t, model.ActionHold, row.Action)
	}
}

func TestRebalance_NegativeInvestment(t *testing.T) {
	valued, total := Value([]model.Position{position("A", "x", "1", "1")}, prices("A", "10"))

	rows, err := Rebalance(valued, total, dec("-1"))

	assert.ErrorIs(t, err, ErrNegativeInvestment)
	assert.Nil(t, rows)
}

func TestRebalance_UnbalancedTargets(t *testing.T) {
	valued, total := Value([]model.Position{
		position("A", "x", "10", "0.5"),
		position("B", "x", "10", "0.2"),
	}, prices("A", "10", "B", "10"))

	rows, err := Rebalance(valued, total, decimal.Zero)
	require.NoError(t, err)

	targets := rows[0].TargetValue.Add(rows[1].TargetValue)
	assertDecimal(t, "140", targets)
	assertDecimal(t, "200", total)
}
