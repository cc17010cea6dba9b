package service

import "errors"

var (
	ErrNotFound             = errors.New("error not found")
	ErrAlreadyRecorded      = errors.New("error today's record already exists")
	ErrNegativeInvestment   = errors.New("error investment amount is negative")
	ErrEmptyPortfolio       = errors.New("error portfolio is empty")
	ErrPricesUnavailable    = errors.New("error prices are unavailable")
	ErrInvalidHoldings      = errors.New("error holdings data is invalid")
	ErrCloudStorageDisabled = errors.New("error cloud storage is not configured")
)
