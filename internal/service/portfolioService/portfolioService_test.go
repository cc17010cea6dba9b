package portfolioService

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	positions    []model.Position
	positionsErr error
	history      []model.HistoryRecord
	appendErr    error
	appended     []model.HistoryRecord
}

func (f *fakeStore) LoadPositions(context.Context) ([]model.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakeStore) LoadHistory(context.Context) ([]model.HistoryRecord, error) {
	return f.history, nil
}

func (f *fakeStore) AppendHistory(_ context.Context, record model.HistoryRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, record)
	f.history = append(f.history, record)
	return nil
}

type fakePrices struct {
	prices    map[string]decimal.Decimal
	refreshed bool
	requested []string
}

func (f *fakePrices) FetchMany(_ context.Context, tickers []string) (map[string]decimal.Decimal, []string) {
	f.requested = tickers
	res := map[string]decimal.Decimal{}
	unavailable := []string{}
	for _, ticker := range tickers {
		if price, ok := f.prices[ticker]; ok {
			res[ticker] = price
		} else {
			unavailable = append(unavailable, ticker)
		}
	}
	return res, unavailable
}

func (f *fakePrices) Refresh(context.Context) error {
	f.refreshed = true
	return nil
}

type fakeGenerator struct {
	snapshot model.Snapshot
}

func (g *fakeGenerator) Generate(_ context.Context, snapshot model.Snapshot) ([]byte, string, error) {
	g.snapshot = snapshot
	return []byte("report"), ".xlsx", nil
}

type fakeCloud struct {
	uploaded string
	body     string
	cleaned  bool
}

func (c *fakeCloud) UploadFile(_ context.Context, reader io.Reader, filename string) (string, error) {
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	c.uploaded = filename
	c.body = string(b)
	return "https://drive.google.com/file/d/abc/view", nil
}

func (c *fakeCloud) DeleteOldFiles(context.Context) error {
	c.cleaned = true
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Timezone = "Asia/Seoul"
	cfg.Report.WeightTolerance = 0.0001
	return cfg
}

type fixture struct {
	store     *fakeStore
	prices    *fakePrices
	generator *fakeGenerator
	svc       *PortfolioService
}

func newFixture(cloud CloudStorage) fixture {
	store := &fakeStore{
		positions: []model.Position{
			{Ticker: "A", Category: "Stocks", Quantity: dec("10"), TargetWeight: dec("0.5")},
			{Ticker: "B", Category: "Bonds", Quantity: dec("5"), TargetWeight: dec("0.5")},
		},
		history: []model.HistoryRecord{
			{Date: "2023-01-01", TotalAsset: dec("1000"), Memo: "Initial Setup"},
		},
	}
	prices := &fakePrices{prices: map[string]decimal.Decimal{"A": dec("85"), "B": dec("40")}}
	generator := &fakeGenerator{}

	svc := New(store, prices, generator, cloud, testConfig())
	// 2023-01-02 01:00 in Seoul
	svc.now = func() time.Time { return time.Date(2023, 1, 1, 16, 0, 0, 0, time.UTC) }

	return fixture{store: store, prices: prices, generator: generator, svc: svc}
}

func TestSnapshot(t *testing.T) {
	fx := newFixture(nil)

	snapshot, err := fx.svc.Snapshot(context.Background(), dec("950"))
	require.NoError(t, err)

	assert.Equal(t, "2023-01-02", snapshot.Date)
	assert.Equal(t, []string{"A", "B"}, fx.prices.requested)
	assert.True(t, dec("1050").Equal(snapshot.TotalValue), snapshot.TotalValue.String())
	assert.True(t, dec("50").Equal(snapshot.Daily.Change))
	assert.True(t, dec("5").Equal(snapshot.Daily.ReturnPct), snapshot.Daily.ReturnPct.String())
	assert.True(t, snapshot.TargetWeights.Balanced)
	assert.Empty(t, snapshot.UnavailableTickers)

	require.Len(t, snapshot.Allocation, 2)
	assert.Equal(t, "Stocks", snapshot.Allocation[0].Category)

	require.Len(t, snapshot.Rebalancing, 2)
	// new total 2000, target 1000 each: A holds 850, B holds 200
	assert.Equal(t, model.ActionBuy, snapshot.Rebalancing[0].Action)
	assert.True(t, dec("150").Equal(snapshot.Rebalancing[0].Difference))
	assert.True(t, dec("20").Equal(snapshot.Rebalancing[1].UnitsToTrade), snapshot.Rebalancing[1].UnitsToTrade.String())
}

func TestSnapshot_UnavailablePrice(t *testing.T) {
	fx := newFixture(nil)
	delete(fx.prices.prices, "B")

	snapshot, err := fx.svc.Snapshot(context.Background(), decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, snapshot.UnavailableTickers)
	assert.True(t, dec("850").Equal(snapshot.TotalValue))
	assert.Equal(t, model.ActionHold, snapshot.Rebalancing[1].Action)
}

func TestSnapshot_Errors(t *testing.T) {
	t.Run("negative investment", func(t *testing.T) {
		fx := newFixture(nil)
		_, err := fx.svc.Snapshot(context.Background(), dec("-1"))
		assert.ErrorIs(t, err, service.ErrNegativeInvestment)
	})

	t.Run("holdings not found", func(t *testing.T) {
		fx := newFixture(nil)
		fx.store.positionsErr = repository.ErrNotFound
		_, err := fx.svc.Snapshot(context.Background(), decimal.Zero)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("invalid holdings", func(t *testing.T) {
		fx := newFixture(nil)
		fx.store.positionsErr = fmt.Errorf("%w: sheet Portfolio row 3: empty ticker", repository.ErrInvalidData)
		_, err := fx.svc.Snapshot(context.Background(), decimal.Zero)
		assert.ErrorIs(t, err, service.ErrInvalidHoldings)
		assert.ErrorContains(t, err, "row 3")
	})

	t.Run("store failure", func(t *testing.T) {
		fx := newFixture(nil)
		storeErr := errors.New("corrupted workbook")
		fx.store.positionsErr = storeErr
		_, err := fx.svc.Snapshot(context.Background(), decimal.Zero)
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestSnapshot_UnbalancedTargets(t *testing.T) {
	fx := newFixture(nil)
	fx.store.positions[1].TargetWeight = dec("0.3")

	snapshot, err := fx.svc.Snapshot(context.Background(), decimal.Zero)
	require.NoError(t, err)

	assert.False(t, snapshot.TargetWeights.Balanced)
	assert.True(t, dec("0.8").Equal(snapshot.TargetWeights.Sum))
}

func TestRecordToday(t *testing.T) {
	fx := newFixture(nil)

	record, err := fx.svc.RecordToday(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "2023-01-02", record.Date)
	assert.Equal(t, "Manual Record", record.Memo)
	assert.True(t, dec("1050").Equal(record.TotalAsset))
	assert.True(t, dec("5").Equal(record.ProfitRate))
	require.Len(t, fx.store.appended, 1)

	_, err = fx.svc.RecordToday(context.Background(), "again")
	assert.ErrorIs(t, err, service.ErrAlreadyRecorded)
	assert.Len(t, fx.store.appended, 1)
}

func TestRecordToday_Degenerate(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(fx fixture)
		wantErr error
	}{
		{
			name:    "empty portfolio",
			prepare: func(fx fixture) { fx.store.positions = nil },
			wantErr: service.ErrEmptyPortfolio,
		},
		{
			name:    "all prices unavailable",
			prepare: func(fx fixture) { fx.prices.prices = nil },
			wantErr: service.ErrPricesUnavailable,
		},
		{
			name: "zero quantities",
			prepare: func(fx fixture) {
				for i := range fx.store.positions {
					fx.store.positions[i].Quantity = decimal.Zero
				}
			},
			wantErr: service.ErrEmptyPortfolio,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(nil)
			tt.prepare(fx)

			_, err := fx.svc.RecordToday(context.Background(), "")

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, fx.store.appended)
		})
	}
}

func TestRecordToday_PartialPricesStillRecorded(t *testing.T) {
	fx := newFixture(nil)
	delete(fx.prices.prices, "B")

	record, err := fx.svc.RecordToday(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, dec("850").Equal(record.TotalAsset))
	assert.Len(t, fx.store.appended, 1)
}

func TestRecordScheduled(t *testing.T) {
	t.Run("skips while any price is unavailable", func(t *testing.T) {
		fx := newFixture(nil)
		delete(fx.prices.prices, "B")

		_, err := fx.svc.RecordScheduled(context.Background(), "Auto Record")

		assert.ErrorIs(t, err, service.ErrPricesUnavailable)
		assert.ErrorContains(t, err, "B")
		assert.Empty(t, fx.store.appended)
	})

	t.Run("records when every price is known", func(t *testing.T) {
		fx := newFixture(nil)

		record, err := fx.svc.RecordScheduled(context.Background(), "Auto Record")
		require.NoError(t, err)

		assert.Equal(t, "Auto Record", record.Memo)
		assert.True(t, dec("1050").Equal(record.TotalAsset))
		assert.Len(t, fx.store.appended, 1)
	})
}

func TestHistory(t *testing.T) {
	fx := newFixture(nil)

	history, err := fx.svc.History(context.Background())
	require.NoError(t, err)

	require.Len(t, history, 1)
	assert.Equal(t, "Initial Setup", history[0].Memo)
}

func TestRecordToday_StoreConstraint(t *testing.T) {
	fx := newFixture(nil)
	fx.store.appendErr = repository.ErrAlreadyExists

	_, err := fx.svc.RecordToday(context.Background(), "memo")

	assert.ErrorIs(t, err, service.ErrAlreadyRecorded)
}

func TestRefreshAndWarm(t *testing.T) {
	fx := newFixture(nil)

	require.NoError(t, fx.svc.RefreshPrices(context.Background()))
	assert.True(t, fx.prices.refreshed)

	require.NoError(t, fx.svc.WarmPriceCache(context.Background()))
	assert.Equal(t, []string{"A", "B"}, fx.prices.requested)

	fx.store.positionsErr = repository.ErrNotFound
	assert.NoError(t, fx.svc.WarmPriceCache(context.Background()))
}

func TestExportReport(t *testing.T) {
	fx := newFixture(nil)

	b, name, err := fx.svc.ExportReport(context.Background(), dec("100"))
	require.NoError(t, err)

	assert.Equal(t, "report", string(b))
	assert.Equal(t, "portfolio_2023-01-02.xlsx", name)
	assert.True(t, dec("100").Equal(fx.generator.snapshot.Investment))
}

func TestBackupReport(t *testing.T) {
	cloud := &fakeCloud{}
	fx := newFixture(cloud)

	link, err := fx.svc.BackupReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://drive.google.com/file/d/abc/view", link)
	assert.Equal(t, "backup_portfolio_2023-01-02.xlsx", cloud.uploaded)
	assert.Equal(t, "report", cloud.body)

	require.NoError(t, fx.svc.CleanupBackups(context.Background()))
	assert.True(t, cloud.cleaned)
}

func TestCloudStorageDisabled(t *testing.T) {
	fx := newFixture(nil)

	_, err := fx.svc.BackupReport(context.Background())
	assert.ErrorIs(t, err, service.ErrCloudStorageDisabled)

	_, err = fx.svc.UploadReport(context.Background(), []byte("x"), "x.xlsx")
	assert.ErrorIs(t, err, service.ErrCloudStorageDisabled)

	assert.ErrorIs(t, fx.svc.CleanupBackups(context.Background()), service.ErrCloudStorageDisabled)
}
