package telegram

import (
	"errors"
	"fmt"
	"testing"

	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/stretchr/testify/assert"
)

func TestErrMessage(t *testing.T) {
	assert.Equal(t, "Today's record already exists.", errMessage(service.ErrAlreadyRecorded))
	assert.Equal(t, "Today's record already exists.", errMessage(fmt.Errorf("record: %w", service.ErrAlreadyRecorded)))
	assert.Contains(t, errMessage(service.ErrNotFound), "not found")
	assert.Contains(t, errMessage(fmt.Errorf("%w: row 2", service.ErrInvalidHoldings)), "invalid rows")
	assert.Contains(t, errMessage(service.ErrEmptyPortfolio), "Portfolio is empty")
	assert.Contains(t, errMessage(fmt.Errorf("%w: A, B", service.ErrPricesUnavailable)), "not saved")
	assert.Equal(t, internalErrMsg, errMessage(errors.New("boom")))
}

func TestAmountErrMessage(t *testing.T) {
	_, err := utils.ParseAmount("-1")
	assert.Contains(t, amountErrMessage(err), "negative")

	_, err = utils.ParseAmount("abc")
	assert.Contains(t, amountErrMessage(err), "Can't read")
}
