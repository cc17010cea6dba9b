package model

import "github.com/shopspring/decimal"

// HistoryRecord is one entry of the History table. Date is an ISO calendar date (YYYY-MM-DD).
type HistoryRecord struct {
	Date       string
	TotalAsset decimal.Decimal
	ProfitRate decimal.Decimal
	Memo       string
}

type DailyMetrics struct {
	Change    decimal.Decimal
	ReturnPct decimal.Decimal
}
