package xlsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data/repository/xlsx"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/xuri/excelize/v2"
)

const (
	ValuationSheet   = "Valuation"
	RebalancingSheet = "Rebalancing"
	AllocationSheet  = "Allocation"
)

const (
	numFmtInt     = 3  // #,##0
	numFmtFloat   = 4  // #,##0.00
	numFmtPercent = 10 // 0.00%
	numFmtUnits   = "#,##0.0000"
)

type styles struct {
	valuationHeader   int
	rebalancingHeader int
	allocationHeader  int
	money             int
	percent           int
	units             int
	buy               int
	sell              int
	bold              int
}

// XlsxGenerator renders a snapshot into a workbook. The Portfolio and History
// sheets keep the holdings store layout, so a report doubles as a backup that
// the xlsx store can open.
type XlsxGenerator struct {
	cfg *config.Config
}

func New(cfg *config.Config) *XlsxGenerator {
	return &XlsxGenerator{cfg: cfg}
}

func (g *XlsxGenerator) Generate(ctx context.Context, snapshot model.Snapshot) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XlsxGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	st, err := newStyles(f)
	if err != nil {
		slog.Error("got error while creating styles", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	steps := []func(*excelize.File, styles, model.Snapshot) error{
		g.fillValuation,
		g.fillRebalancing,
		g.fillAllocation,
		func(f *excelize.File, _ styles, s model.Snapshot) error { return xlsx.WritePortfolioSheet(f, s.RawPositions()) },
		g.fillHistory,
	}
	for _, step := range steps {
		if err := step(f, st, snapshot); err != nil {
			slog.Error("got error while filling sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return nil, "", err
		}
	}

	// Удаляем лист по умолчанию "Sheet1"
	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	idx, err := f.GetSheetIndex(ValuationSheet)
	if err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		st  styles
		err error
	)

	header := func(color string) (int, error) {
		return f.NewStyle(&excelize.Style{
			Alignment: &excelize.Alignment{
				Horizontal: "center",
				Vertical:   "center",
			},
			Font: &excelize.Font{
				Bold: true,
				Size: 11,
			},
			Fill: excelize.Fill{
				Type:    "pattern",
				Pattern: 1,
				Color:   []string{color},
			},
		})
	}

	if st.valuationHeader, err = header("#cfe2f3"); err != nil { // светло-голубой
		return st, err
	}
	if st.rebalancingHeader, err = header("#f9cb9c"); err != nil { // светло-оранжевый
		return st, err
	}
	if st.allocationHeader, err = header("#d9ead3"); err != nil { // светло-зеленый
		return st, err
	}
	if st.money, err = f.NewStyle(&excelize.Style{NumFmt: numFmtInt}); err != nil {
		return st, err
	}
	if st.percent, err = f.NewStyle(&excelize.Style{NumFmt: numFmtPercent}); err != nil {
		return st, err
	}
	unitsFmt := numFmtUnits
	if st.units, err = f.NewStyle(&excelize.Style{CustomNumFmt: &unitsFmt}); err != nil {
		return st, err
	}
	if st.buy, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#006100"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#c6efce"}},
	}); err != nil {
		return st, err
	}
	if st.sell, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#9c0006"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#ffc7ce"}},
	}); err != nil {
		return st, err
	}
	if st.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return st, err
	}

	return st, nil
}

func (g *XlsxGenerator) fillValuation(f *excelize.File, st styles, snapshot model.Snapshot) error {
	sheet := ValuationSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	_ = f.SetCellStr(sheet, "A1", "Date")
	_ = f.SetCellStr(sheet, "B1", snapshot.Date)
	_ = f.SetCellStr(sheet, "A2", fmt.Sprintf("Total Value (%s)", g.cfg.Report.Currency))
	_ = f.SetCellValue(sheet, "B2", snapshot.TotalValue.InexactFloat64())
	_ = f.SetCellStr(sheet, "A3", "Daily Change")
	_ = f.SetCellValue(sheet, "B3", snapshot.Daily.Change.InexactFloat64())
	_ = f.SetCellStr(sheet, "A4", "Daily Return %")
	_ = f.SetCellValue(sheet, "B4", snapshot.Daily.ReturnPct.Round(2).InexactFloat64())
	_ = f.SetCellStr(sheet, "A5", "Target Weight Sum")
	_ = f.SetCellValue(sheet, "B5", snapshot.TargetWeights.Sum.InexactFloat64())
	if !snapshot.TargetWeights.Balanced {
		_ = f.SetCellStr(sheet, "C5", "target weights don't sum to 100%")
	}
	if err := f.SetCellStyle(sheet, "A1", "A5", st.bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B2", "B3", st.money); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B5", "B5", st.percent); err != nil {
		return err
	}

	const headerRow = 7
	header := []interface{}{"Ticker", "Name", "Category", "Quantity", "Price", "Value", "Weight", "Target Weight"}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", headerRow), &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("H%d", headerRow), st.valuationHeader); err != nil {
		return err
	}

	unavailable := make(map[string]struct{}, len(snapshot.UnavailableTickers))
	for _, ticker := range snapshot.UnavailableTickers {
		unavailable[ticker] = struct{}{}
	}

	row := headerRow
	for _, p := range snapshot.Positions {
		row++
		_ = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), p.Ticker)
		_ = f.SetCellStr(sheet, fmt.Sprintf("B%d", row), p.Name)
		_ = f.SetCellStr(sheet, fmt.Sprintf("C%d", row), p.Category)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), p.Quantity.InexactFloat64())
		if _, ok := unavailable[p.Ticker]; ok {
			_ = f.SetCellStr(sheet, fmt.Sprintf("E%d", row), "N/A")
		} else {
			_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), p.CurrentPrice.InexactFloat64())
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), p.CurrentValue.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), p.CurrentWeight.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), p.TargetWeight.InexactFloat64())
	}

	if row > headerRow {
		first := headerRow + 1
		_ = f.SetCellStyle(sheet, fmt.Sprintf("E%d", first), fmt.Sprintf("F%d", row), st.money)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("G%d", first), fmt.Sprintf("H%d", row), st.percent)
	}

	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "H", 14)

	return nil
}

func (g *XlsxGenerator) fillRebalancing(f *excelize.File, st styles, snapshot model.Snapshot) error {
	sheet := RebalancingSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	_ = f.SetCellStr(sheet, "A1", fmt.Sprintf("Investment (%s)", g.cfg.Report.Currency))
	_ = f.SetCellValue(sheet, "B1", snapshot.Investment.InexactFloat64())
	_ = f.SetCellStr(sheet, "A2", "New Total")
	_ = f.SetCellValue(sheet, "B2", snapshot.TotalValue.Add(snapshot.Investment).InexactFloat64())
	if err := f.SetCellStyle(sheet, "A1", "A2", st.bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B1", "B2", st.money); err != nil {
		return err
	}

	const headerRow = 4
	header := []interface{}{"Ticker", "Name", "Current Value", "Current Weight", "Target Weight", "Target Value", "Difference", "Units To Trade", "Action"}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", headerRow), &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("I%d", headerRow), st.rebalancingHeader); err != nil {
		return err
	}

	row := headerRow
	for _, r := range snapshot.Rebalancing {
		row++
		_ = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), r.Ticker)
		_ = f.SetCellStr(sheet, fmt.Sprintf("B%d", row), r.Name)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.CurrentValue.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.CurrentWeight.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.TargetWeight.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.TargetValue.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), r.Difference.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), r.UnitsToTrade.Round(4).InexactFloat64())
		_ = f.SetCellStr(sheet, fmt.Sprintf("I%d", row), string(r.Action))

		actionCell := fmt.Sprintf("I%d", row)
		switch r.Action {
		case model.ActionBuy:
			_ = f.SetCellStyle(sheet, actionCell, actionCell, st.buy)
		case model.ActionSell:
			_ = f.SetCellStyle(sheet, actionCell, actionCell, st.sell)
		}
	}

	if row > headerRow {
		first := headerRow + 1
		_ = f.SetCellStyle(sheet, fmt.Sprintf("C%d", first), fmt.Sprintf("C%d", row), st.money)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("D%d", first), fmt.Sprintf("E%d", row), st.percent)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("F%d", first), fmt.Sprintf("G%d", row), st.money)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("H%d", first), fmt.Sprintf("H%d", row), st.units)
	}

	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "I", 15)

	return nil
}

func (g *XlsxGenerator) fillAllocation(f *excelize.File, st styles, snapshot model.Snapshot) error {
	sheet := AllocationSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []interface{}{"Category", "Value", "Weight"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", st.allocationHeader); err != nil {
		return err
	}

	for i, a := range snapshot.Allocation {
		row := i + 2
		category := a.Category
		if category == "" {
			category = "Uncategorized"
		}
		_ = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), category)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), a.Value.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), a.Weight.InexactFloat64())
	}

	last := len(snapshot.Allocation) + 1
	if last < 2 {
		return nil
	}

	_ = f.SetCellStyle(sheet, "B2", fmt.Sprintf("B%d", last), st.money)
	_ = f.SetCellStyle(sheet, "C2", fmt.Sprintf("C%d", last), st.percent)
	_ = f.SetColWidth(sheet, "A", "C", 16)

	return f.AddChart(sheet, "E2", &excelize.Chart{
		Type: excelize.Doughnut,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$B$1", sheet),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheet, last),
			},
		},
		Title:  []excelize.RichTextRun{{Text: "Asset Allocation by Category"}},
		Legend: excelize.ChartLegend{Position: "right"},
		PlotArea: excelize.ChartPlotArea{
			ShowPercent: true,
		},
	})
}

// fillHistory writes the History sheet in the store layout and adds the total asset trend next to it.
func (g *XlsxGenerator) fillHistory(f *excelize.File, _ styles, snapshot model.Snapshot) error {
	if err := xlsx.WriteHistorySheet(f, snapshot.History); err != nil {
		return err
	}

	last := len(snapshot.History) + 1
	if last < 2 {
		return nil
	}

	sheet := xlsx.HistorySheet
	return f.AddChart(sheet, "F2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$B$1", sheet),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheet, last),
			},
		},
		Title:  []excelize.RichTextRun{{Text: "Total Asset Trend"}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}
