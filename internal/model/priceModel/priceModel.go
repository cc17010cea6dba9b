package priceModel

import "github.com/shopspring/decimal"

// RawChart is the chart endpoint response, only the fields we read.
type RawChart struct {
	Chart Chart `json:"chart"`
}

type Chart struct {
	Result []ChartResult `json:"result"`
	Error  *ChartError   `json:"error"`
}

type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type ChartResult struct {
	Meta       ChartMeta       `json:"meta"`
	Indicators ChartIndicators `json:"indicators"`
}

type ChartMeta struct {
	Currency           string   `json:"currency"`
	Symbol             string   `json:"symbol"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
}

type ChartIndicators struct {
	Quote []ChartQuote `json:"quote"`
}

type ChartQuote struct {
	Close []*float64 `json:"close"`
}

type Quote struct {
	Ticker   string
	Symbol   string
	Currency string
	Price    decimal.Decimal
}
