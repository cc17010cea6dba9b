package telegram

import (
	"errors"

	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/utils"
)

const (
	internalErrMsg = "Something went wrong, please try again later."
	unknownStepMsg = "Use one of the commands first, /start shows the list."
)

func errMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "Portfolio file not found. Create it with portfolioctl seed first."
	case errors.Is(err, service.ErrInvalidHoldings):
		return "The portfolio file has invalid rows. Check the Portfolio and History sheets."
	case errors.Is(err, service.ErrEmptyPortfolio):
		return "Portfolio is empty, nothing to record. Add holdings to the Portfolio sheet."
	case errors.Is(err, service.ErrPricesUnavailable):
		return "Prices are unavailable right now, the record was not saved. Try again later."
	case errors.Is(err, service.ErrAlreadyRecorded):
		return "Today's record already exists."
	case errors.Is(err, service.ErrNegativeInvestment):
		return "Investment amount can't be negative."
	case errors.Is(err, service.ErrCloudStorageDisabled):
		return "Google Drive isn't configured."
	default:
		return internalErrMsg
	}
}

func amountErrMessage(err error) string {
	if errors.Is(err, utils.ErrNegativeAmount) {
		return "Investment amount can't be negative."
	}
	return "Can't read the amount, send a number like 1,000,000."
}
