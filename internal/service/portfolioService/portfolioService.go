package portfolioService

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/internal/valuationEngine"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/shopspring/decimal"
)

const defaultMemo = "Manual Record"

type HoldingsStore interface {
	LoadPositions(ctx context.Context) ([]model.Position, error)
	LoadHistory(ctx context.Context) ([]model.HistoryRecord, error)
	AppendHistory(ctx context.Context, record model.HistoryRecord) error
}

type PriceSource interface {
	FetchMany(ctx context.Context, tickers []string) (prices map[string]decimal.Decimal, unavailable []string)
	Refresh(ctx context.Context) error
}

type ReportGenerator interface {
	Generate(ctx context.Context, snapshot model.Snapshot) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
	DeleteOldFiles(ctx context.Context) error
}

type PortfolioService struct {
	store           HoldingsStore
	prices          PriceSource
	reportGenerator ReportGenerator
	cloudStorage    CloudStorage
	cfg             *config.Config
	now             func() time.Time
}

// New builds the service. cloudStorage may be nil when Google Drive isn't configured.
func New(store HoldingsStore, prices PriceSource, reportGenerator ReportGenerator, cloudStorage CloudStorage, cfg *config.Config) *PortfolioService {
	return &PortfolioService{
		store:           store,
		prices:          prices,
		reportGenerator: reportGenerator,
		cloudStorage:    cloudStorage,
		cfg:             cfg,
		now:             time.Now,
	}
}

func (s *PortfolioService) today() string {
	return s.now().In(s.cfg.Location()).Format(time.DateOnly)
}

// Snapshot loads holdings and history, fetches prices and computes every
// derived figure. investment is the new cash to spread by target weights.
func (s *PortfolioService) Snapshot(ctx context.Context, investment decimal.Decimal) (snapshot model.Snapshot, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.Snapshot"

	slog.Debug("Snapshot start", slog.String("rqID", rqID), slog.String("op", op), slog.String("investment", investment.String()))
	defer func() {
		slog.Debug("Snapshot finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if investment.IsNegative() {
		return model.Snapshot{}, service.ErrNegativeInvestment
	}

	positions, err := s.store.LoadPositions(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("holdings not found", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return model.Snapshot{}, service.ErrNotFound
		}
		if errors.Is(err, repository.ErrInvalidData) {
			slog.Warn("holdings are invalid", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return model.Snapshot{}, fmt.Errorf("%w: %w", service.ErrInvalidHoldings, err)
		}
		slog.Error("got error from store.LoadPositions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Snapshot{}, err
	}

	history, err := s.store.LoadHistory(ctx)
	if err != nil {
		slog.Error("got error from store.LoadHistory", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		if errors.Is(err, repository.ErrInvalidData) {
			return model.Snapshot{}, fmt.Errorf("%w: %w", service.ErrInvalidHoldings, err)
		}
		return model.Snapshot{}, err
	}

	tickers := make([]string, 0, len(positions))
	for _, p := range positions {
		tickers = append(tickers, p.Ticker)
	}
	prices, unavailable := s.prices.FetchMany(ctx, tickers)

	valued, total := valuationEngine.Value(positions, prices)

	rebalancing, err := valuationEngine.Rebalance(valued, total, investment)
	if err != nil {
		if errors.Is(err, valuationEngine.ErrNegativeInvestment) {
			return model.Snapshot{}, service.ErrNegativeInvestment
		}
		return model.Snapshot{}, err
	}

	weights := valuationEngine.CheckTargetWeights(positions, decimal.NewFromFloat(s.cfg.Report.WeightTolerance))
	if !weights.Balanced {
		slog.Warn("target weights don't sum to 1", slog.String("rqID", rqID), slog.String("op", op), slog.String("sum", weights.Sum.String()))
	}

	return model.Snapshot{
		Date:               s.today(),
		Positions:          valued,
		TotalValue:         total,
		Daily:              valuationEngine.DailyChange(history, total),
		Allocation:         valuationEngine.AllocationByCategory(valued, total),
		TargetWeights:      weights,
		Investment:         investment,
		Rebalancing:        rebalancing,
		History:            history,
		UnavailableTickers: unavailable,
	}, nil
}

// RecordToday appends today's total value to the history. A second record
// for the same date is refused with service.ErrAlreadyRecorded. An empty
// portfolio or one without a single price is never recorded.
func (s *PortfolioService) RecordToday(ctx context.Context, memo string) (model.HistoryRecord, error) {
	return s.record(ctx, memo, false)
}

// RecordScheduled is RecordToday for unattended runs: it also refuses to
// record while any price is unavailable.
func (s *PortfolioService) RecordScheduled(ctx context.Context, memo string) (model.HistoryRecord, error) {
	return s.record(ctx, memo, true)
}

func (s *PortfolioService) record(ctx context.Context, memo string, requireAllPrices bool) (record model.HistoryRecord, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.record"

	slog.Debug("record start", slog.String("rqID", rqID), slog.String("op", op), slog.Bool("requireAllPrices", requireAllPrices))
	defer func() {
		slog.Debug("record finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	snapshot, err := s.Snapshot(ctx, decimal.Zero)
	if err != nil {
		return model.HistoryRecord{}, err
	}

	if err = checkRecordable(snapshot, requireAllPrices); err != nil {
		slog.Warn("snapshot is not recordable", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()), slog.Any("unavailable", snapshot.UnavailableTickers))
		return model.HistoryRecord{}, err
	}

	if memo == "" {
		memo = defaultMemo
	}

	record = model.HistoryRecord{
		Date:       snapshot.Date,
		TotalAsset: snapshot.TotalValue,
		ProfitRate: snapshot.Daily.ReturnPct,
		Memo:       memo,
	}

	if _, err = valuationEngine.AppendHistory(snapshot.History, record); err != nil {
		if errors.Is(err, valuationEngine.ErrAlreadyRecorded) {
			slog.Info("today's record already exists", slog.String("rqID", rqID), slog.String("op", op), slog.String("date", record.Date))
			return model.HistoryRecord{}, service.ErrAlreadyRecorded
		}
		return model.HistoryRecord{}, err
	}

	err = s.store.AppendHistory(ctx, record)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.HistoryRecord{}, service.ErrAlreadyRecorded
		}
		if errors.Is(err, repository.ErrNotFound) {
			return model.HistoryRecord{}, service.ErrNotFound
		}
		slog.Error("got error from store.AppendHistory", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.HistoryRecord{}, err
	}

	if len(snapshot.UnavailableTickers) > 0 {
		slog.Warn("recorded with unavailable prices", slog.String("rqID", rqID), slog.String("op", op), slog.Any("tickers", snapshot.UnavailableTickers))
	}

	return record, nil
}

// checkRecordable rejects snapshots whose total would poison the daily return
// of every later record.
func checkRecordable(snapshot model.Snapshot, requireAllPrices bool) error {
	if len(snapshot.Positions) == 0 {
		return service.ErrEmptyPortfolio
	}
	unavailable := len(snapshot.UnavailableTickers)
	if unavailable == len(snapshot.Positions) || (requireAllPrices && unavailable > 0) {
		return fmt.Errorf("%w: %s", service.ErrPricesUnavailable, strings.Join(snapshot.UnavailableTickers, ", "))
	}
	if !snapshot.TotalValue.IsPositive() {
		return service.ErrEmptyPortfolio
	}
	return nil
}

// History returns the recorded history, oldest first.
func (s *PortfolioService) History(ctx context.Context) ([]model.HistoryRecord, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.History"

	history, err := s.store.LoadHistory(ctx)
	if err != nil {
		slog.Error("got error from store.LoadHistory", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return history, nil
}

// RefreshPrices discards cached prices.
func (s *PortfolioService) RefreshPrices(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.RefreshPrices"

	if err := s.prices.Refresh(ctx); err != nil {
		slog.Error("got error from prices.Refresh", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// WarmPriceCache fetches prices for every held ticker so interactive requests hit the cache.
func (s *PortfolioService) WarmPriceCache(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.WarmPriceCache"

	positions, err := s.store.LoadPositions(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("nothing to warm, holdings not found", slog.String("rqID", rqID), slog.String("op", op))
			return nil
		}
		slog.Error("got error from store.LoadPositions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	tickers := make([]string, 0, len(positions))
	for _, p := range positions {
		tickers = append(tickers, p.Ticker)
	}
	prices, unavailable := s.prices.FetchMany(ctx, tickers)

	slog.Info("price cache warmed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("resolved", len(prices)), slog.Int("unavailable", len(unavailable)))

	return nil
}

// ExportReport renders the snapshot for investment into a workbook.
func (s *PortfolioService) ExportReport(ctx context.Context, investment decimal.Decimal) (fileBytes []byte, fileName string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ExportReport"

	slog.Debug("ExportReport start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ExportReport finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	snapshot, err := s.Snapshot(ctx, investment)
	if err != nil {
		return nil, "", err
	}

	fileBytes, ext, err := s.reportGenerator.Generate(ctx, snapshot)
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	return fileBytes, fmt.Sprintf("portfolio_%s%s", snapshot.Date, ext), nil
}

// BackupReport uploads a fresh report to cloud storage and returns its link.
func (s *PortfolioService) BackupReport(ctx context.Context) (link string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.BackupReport"

	if s.cloudStorage == nil {
		return "", service.ErrCloudStorageDisabled
	}

	fileBytes, fileName, err := s.ExportReport(ctx, decimal.Zero)
	if err != nil {
		return "", err
	}

	return s.upload(ctx, op, rqID, fileBytes, "backup_"+fileName)
}

// UploadReport uploads already rendered report bytes, used when a file is too large to send directly.
func (s *PortfolioService) UploadReport(ctx context.Context, fileBytes []byte, fileName string) (link string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.UploadReport"

	if s.cloudStorage == nil {
		return "", service.ErrCloudStorageDisabled
	}

	return s.upload(ctx, op, rqID, fileBytes, fileName)
}

func (s *PortfolioService) upload(ctx context.Context, op, rqID string, fileBytes []byte, fileName string) (string, error) {
	link, err := s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), fileName)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	slog.Info("report uploaded", slog.String("rqID", rqID), slog.String("op", op), slog.String("fileName", fileName))

	return link, nil
}

// CleanupBackups removes cloud backups older than the configured TTL.
func (s *PortfolioService) CleanupBackups(ctx context.Context) error {
	if s.cloudStorage == nil {
		return service.ErrCloudStorageDisabled
	}
	return s.cloudStorage.DeleteOldFiles(ctx)
}
