package valuationEngine

import (
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
)

// AppendHistory returns history with record appended, or ErrAlreadyRecorded
// together with the unchanged history when the last record has the same date.
// The input slice is never modified.
func AppendHistory(history []model.HistoryRecord, record model.HistoryRecord) ([]model.HistoryRecord, error) {
	if len(history) > 0 && history[len(history)-1].Date == record.Date {
		return history, ErrAlreadyRecorded
	}

	res := make([]model.HistoryRecord, len(history), len(history)+1)
	copy(res, history)

	return append(res, record), nil
}

// DailyChange compares totalValue with the last recorded total.
func DailyChange(history []model.HistoryRecord, totalValue decimal.Decimal) model.DailyMetrics {
	if len(history) == 0 {
		return model.DailyMetrics{}
	}

	prev := history[len(history)-1].TotalAsset
	metrics := model.DailyMetrics{Change: totalValue.Sub(prev)}

	if prev.IsPositive() {
		metrics.ReturnPct = metrics.Change.Div(prev).Mul(decimal.NewFromInt(100))
	}

	return metrics
}
