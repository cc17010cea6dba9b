package dbModel

import "github.com/shopspring/decimal"

type Position struct {
	Ticker       string          `db:"ticker"`
	Name         string          `db:"name"`
	Category     string          `db:"category"`
	Quantity     decimal.Decimal `db:"quantity"`
	TargetWeight decimal.Decimal `db:"target_weight"`
}

type HistoryRecord struct {
	Date       string          `db:"date"`
	TotalAsset decimal.Decimal `db:"total_asset"`
	ProfitRate decimal.Decimal `db:"profit_rate"`
	Memo       string          `db:"memo"`
}
