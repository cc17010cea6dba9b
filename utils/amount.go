package utils

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount  = errors.New("error invalid amount")
	ErrNegativeAmount = errors.New("error negative amount")
)

// ParseAmount parses user input like "1,000,000", "₩ 500000" or "2500.5".
// An empty input is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(",", "", "_", "", " ", "", "₩", "", "$", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, nil
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}

	return amount, nil
}
