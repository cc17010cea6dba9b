package valuationEngine

import (
	"testing"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected %s, got %s %v", want, got.String(), msgAndArgs)
}

func position(ticker, category, qty, target string) model.Position {
	return model.Position{
		Ticker:       ticker,
		Name:         ticker + " name",
		Category:     category,
		Quantity:     dec(qty),
		TargetWeight: dec(target),
	}
}

func prices(kv ...string) map[string]decimal.Decimal {
	res := make(map[string]decimal.Decimal, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		res[kv[i]] = dec(kv[i+1])
	}
	return res
}
