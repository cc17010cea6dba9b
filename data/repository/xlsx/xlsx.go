// Package xlsx is the spreadsheet holdings store: one workbook with a
// Portfolio sheet and a History sheet.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	PortfolioSheet = "Portfolio"
	HistorySheet   = "History"
)

// 9999-12-31
const maxExcelSerial = 2958466

var (
	PortfolioHeader = []string{"Ticker", "Name", "Category", "Quantity", "Target_Weight"}
	HistoryHeader   = []string{"Date", "Total_Asset", "Profit_Rate", "Memo"}
)

// Store reads and writes the workbook at path. It assumes a single writer:
// every append rewrites the whole file.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) LoadPositions(ctx context.Context) (positions []model.Position, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XlsxStore.LoadPositions"

	slog.Debug("LoadPositions start", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", s.path))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("LoadPositions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer s.close(ctx, f)

	rows, err := s.getRows(f, PortfolioSheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []model.Position{}, nil
	}

	columns := columnIndex(rows[0])
	for _, required := range []string{"ticker", "quantity", "target_weight"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: sheet %s: missing column %s", repository.ErrInvalidData, PortfolioSheet, required)
		}
	}

	positions = make([]model.Position, 0, len(rows)-1)
	// ticker -> row, tickers are unique like the postgres primary key
	seen := make(map[string]int, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}

		position := model.Position{
			Ticker:   cell(row, columns, "ticker"),
			Name:     cell(row, columns, "name"),
			Category: cell(row, columns, "category"),
		}
		if position.Ticker == "" {
			return nil, fmt.Errorf("%w: sheet %s row %d: empty ticker", repository.ErrInvalidData, PortfolioSheet, rowNum)
		}
		if prev, ok := seen[position.Ticker]; ok {
			return nil, fmt.Errorf("%w: sheet %s row %d: ticker %s already listed in row %d", repository.ErrInvalidData, PortfolioSheet, rowNum, position.Ticker, prev)
		}
		seen[position.Ticker] = rowNum

		position.Quantity, err = parseDecimal(cell(row, columns, "quantity"))
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %s row %d: invalid quantity: %w", repository.ErrInvalidData, PortfolioSheet, rowNum, err)
		}
		if position.Quantity.IsNegative() {
			return nil, fmt.Errorf("%w: sheet %s row %d: negative quantity %s", repository.ErrInvalidData, PortfolioSheet, rowNum, position.Quantity)
		}

		position.TargetWeight, err = parseDecimal(cell(row, columns, "target_weight"))
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %s row %d: invalid target weight: %w", repository.ErrInvalidData, PortfolioSheet, rowNum, err)
		}

		positions = append(positions, position)
	}

	slog.Debug("LoadPositions completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(positions)))

	return positions, nil
}

// LoadHistory returns an empty history when the workbook or the sheet doesn't exist yet.
func (s *Store) LoadHistory(ctx context.Context) (history []model.HistoryRecord, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XlsxStore.LoadHistory"

	slog.Debug("LoadHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", s.path))

	f, err := s.open()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []model.HistoryRecord{}, nil
		}
		return nil, err
	}
	defer s.close(ctx, f)

	rows, err := s.getRows(f, HistorySheet)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []model.HistoryRecord{}, nil
		}
		return nil, err
	}

	history, err = parseHistory(rows)
	if err != nil {
		slog.Error("LoadHistory failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	slog.Debug("LoadHistory completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(history)))

	return history, nil
}

// AppendHistory adds record to the History sheet and atomically replaces the workbook.
// The Portfolio sheet is written back as it was read.
func (s *Store) AppendHistory(ctx context.Context, record model.HistoryRecord) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XlsxStore.AppendHistory"

	slog.Debug("AppendHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.String("date", record.Date))
	defer func() {
		if err != nil {
			slog.Error("AppendHistory failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer s.close(ctx, f)

	idx, err := f.GetSheetIndex(HistorySheet)
	if err != nil {
		return err
	}
	if idx == -1 {
		if _, err = f.NewSheet(HistorySheet); err != nil {
			return err
		}
		if err = writeHeader(f, HistorySheet, HistoryHeader); err != nil {
			return err
		}
	}

	rows, err := f.GetRows(HistorySheet)
	if err != nil {
		return err
	}
	nextRow := len(rows) + 1
	if nextRow == 1 {
		if err = writeHeader(f, HistorySheet, HistoryHeader); err != nil {
			return err
		}
		nextRow = 2
	}

	if err = writeHistoryRow(f, nextRow, record); err != nil {
		return err
	}

	if err = s.save(f); err != nil {
		return err
	}

	slog.Info("history appended", slog.String("rqID", rqID), slog.String("op", op), slog.String("date", record.Date), slog.String("totalAsset", record.TotalAsset.String()))

	return nil
}

// Create writes a new workbook in the store layout, replacing any existing file.
func (s *Store) Create(ctx context.Context, positions []model.Position, history []model.HistoryRecord) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XlsxStore.Create"

	f := excelize.NewFile()
	defer s.close(ctx, f)

	if err := WritePortfolioSheet(f, positions); err != nil {
		return err
	}
	if err := WriteHistorySheet(f, history); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	idx, err := f.GetSheetIndex(PortfolioSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	if err := s.save(f); err != nil {
		slog.Error("Create failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Info("workbook created", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", s.path))

	return nil
}

// WritePortfolioSheet creates the Portfolio sheet in f. Tickers are written as text.
func WritePortfolioSheet(f *excelize.File, positions []model.Position) error {
	if _, err := f.NewSheet(PortfolioSheet); err != nil {
		return err
	}
	if err := writeHeader(f, PortfolioSheet, PortfolioHeader); err != nil {
		return err
	}

	for i, position := range positions {
		row := i + 2
		_ = f.SetCellStr(PortfolioSheet, fmt.Sprintf("A%d", row), position.Ticker)
		_ = f.SetCellStr(PortfolioSheet, fmt.Sprintf("B%d", row), position.Name)
		_ = f.SetCellStr(PortfolioSheet, fmt.Sprintf("C%d", row), position.Category)
		_ = setDecimal(f, PortfolioSheet, fmt.Sprintf("D%d", row), position.Quantity)
		_ = setDecimal(f, PortfolioSheet, fmt.Sprintf("E%d", row), position.TargetWeight)
	}

	return nil
}

// WriteHistorySheet creates the History sheet in f.
func WriteHistorySheet(f *excelize.File, history []model.HistoryRecord) error {
	if _, err := f.NewSheet(HistorySheet); err != nil {
		return err
	}
	if err := writeHeader(f, HistorySheet, HistoryHeader); err != nil {
		return err
	}

	for i, record := range history {
		if err := writeHistoryRow(f, i+2, record); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, repository.ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

func (s *Store) close(ctx context.Context, f *excelize.File) {
	if err := f.Close(); err != nil {
		slog.Error("got error while closing file", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("path", s.path), slog.String("err", err.Error()))
	}
}

func (s *Store) getRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		var notExist excelize.ErrSheetNotExist
		if errors.As(err, &notExist) {
			return nil, fmt.Errorf("sheet %s: %w", sheet, repository.ErrNotFound)
		}
		return nil, err
	}
	return rows, nil
}

// save writes f next to the target and renames it over, so a crash never leaves a half written workbook.
func (s *Store) save(f *excelize.File) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".portfolio-*.xlsx.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string) error {
	values := make([]interface{}, 0, len(header))
	for _, h := range header {
		values = append(values, h)
	}
	return f.SetSheetRow(sheet, "A1", &values)
}

// setDecimal stores d as a numeric cell holding its exact decimal text.
func setDecimal(f *excelize.File, sheet, axis string, d decimal.Decimal) error {
	return f.SetCellDefault(sheet, axis, d.String())
}

func writeHistoryRow(f *excelize.File, row int, record model.HistoryRecord) error {
	if err := f.SetCellStr(HistorySheet, fmt.Sprintf("A%d", row), record.Date); err != nil {
		return err
	}
	_ = setDecimal(f, HistorySheet, fmt.Sprintf("B%d", row), record.TotalAsset)
	_ = setDecimal(f, HistorySheet, fmt.Sprintf("C%d", row), record.ProfitRate)
	_ = f.SetCellStr(HistorySheet, fmt.Sprintf("D%d", row), record.Memo)
	return nil
}

func parseHistory(rows [][]string) ([]model.HistoryRecord, error) {
	history := make([]model.HistoryRecord, 0)
	if len(rows) == 0 {
		return history, nil
	}

	columns := columnIndex(rows[0])
	if _, ok := columns["date"]; !ok {
		return nil, fmt.Errorf("%w: sheet %s: missing column date", repository.ErrInvalidData, HistorySheet)
	}

	for i, row := range rows[1:] {
		rowNum := i + 2
		date := parseDate(cell(row, columns, "date"))
		if date == "" {
			continue
		}

		totalAsset, err := parseDecimal(cell(row, columns, "total_asset"))
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %s row %d: invalid total asset: %w", repository.ErrInvalidData, HistorySheet, rowNum, err)
		}
		profitRate, err := parseDecimal(cell(row, columns, "profit_rate"))
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %s row %d: invalid profit rate: %w", repository.ErrInvalidData, HistorySheet, rowNum, err)
		}

		history = append(history, model.HistoryRecord{
			Date:       date,
			TotalAsset: totalAsset,
			ProfitRate: profitRate,
			Memo:       cell(row, columns, "memo"),
		})
	}

	return history, nil
}

func columnIndex(header []string) map[string]int {
	res := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		if _, ok := res[key]; !ok && key != "" {
			res[key] = i
		}
	}
	return res
}

// cell returns the trimmed value, GetRows drops trailing empty cells so the row may be short.
func cell(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// parseDate normalizes ISO strings, datetimes and Excel serial dates to YYYY-MM-DD.
func parseDate(s string) string {
	if s == "" {
		return ""
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < maxExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.Format("2006-01-02")
		}
	}
	if len(s) > 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}
