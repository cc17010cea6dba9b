package valuationEngine

import (
	"testing"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(date, total string) model.HistoryRecord {
	return model.HistoryRecord{Date: date, TotalAsset: dec(total), Memo: "Manual Record"}
}

func TestAppendHistory(t *testing.T) {
	history := []model.HistoryRecord{record("2023-01-01", "10000000")}

	res, err := AppendHistory(history, record("2023-01-02", "10100000"))

	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "2023-01-02", res[1].Date)
	assert.Len(t, history, 1)
}

func TestAppendHistory_Empty(t *testing.T) {
	res, err := AppendHistory(nil, record("2023-01-01", "1"))

	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestAppendHistory_DuplicateDate(t *testing.T) {
	history := []model.HistoryRecord{
		record("2023-01-01", "10000000"),
		record("2023-01-02", "10100000"),
	}

	res, err := AppendHistory(history, record("2023-01-02", "10200000"))

	assert.ErrorIs(t, err, ErrAlreadyRecorded)
	assert.Len(t, res, 2)
	assertDecimal(t, "10100000", res[1].TotalAsset)
}

func TestAppendHistory_DoesNotShareBackingArray(t *testing.T) {
	history := make([]model.HistoryRecord, 1, 4)
	history[0] = record("2023-01-01", "1")

	a, err := AppendHistory(history, record("2023-01-02", "2"))
	require.NoError(t, err)
	b, err := AppendHistory(history, record("2023-01-03", "3"))
	require.NoError(t, err)

	assert.Equal(t, "2023-01-02", a[1].Date)
	assert.Equal(t, "2023-01-03", b[1].Date)
}

func TestDailyChange(t *testing.T) {
	tests := []struct {
		name      string
		history   []model.HistoryRecord
		total     string
		change    string
		returnPct string
	}{
		{
			name:      "no history",
			history:   nil,
			total:     "4200000",
			change:    "0",
			returnPct: "0",
		},
		{
			name:      "growth",
			history:   []model.HistoryRecord{record("2023-01-01", "1"), record("2023-01-02", "4000000")},
			total:     "4200000",
			change:    "200000",
			returnPct: "5",
		},
		{
			name:      "loss",
			history:   []model.HistoryRecord{record("2023-01-02", "4000000")},
			total:     "3000000",
			change:    "-1000000",
			returnPct: "-25",
		},
		{
			name:      "zero previous total",
			history:   []model.HistoryRecord{record("2023-01-02", "0")},
			total:     "100",
			change:    "100",
			returnPct: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := DailyChange(tt.history, dec(tt.total))

			assertDecimal(t, tt.change, metrics.Change)
			assertDecimal(t, tt.returnPct, metrics.ReturnPct)
		})
	}
}

func TestDailyChange_UsesLastRecord(t *testing.T) {
	history := []model.HistoryRecord{record("2023-01-01", "100"), record("2023-01-02", "200")}

	metrics := DailyChange(history, decimal.NewFromInt(210))

	assertDecimal(t, "10", metrics.Change)
	assertDecimal(t, "5", metrics.ReturnPct)
}
