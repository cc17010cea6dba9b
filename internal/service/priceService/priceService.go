package priceService

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi"
	"github.com/KotFed0t/portfolio_tracker/internal/model/priceModel"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type PriceApi interface {
	GetQuote(ctx context.Context, ticker string) (priceModel.Quote, error)
}

type PriceCache interface {
	GetPrices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error)
	SetPrices(ctx context.Context, prices map[string]decimal.Decimal) error
	FlushPrices(ctx context.Context) error
}

// PriceService resolves current prices for tickers. cache is optional.
type PriceService struct {
	api   PriceApi
	cache PriceCache
	cfg   *config.Config
}

func New(api PriceApi, cache PriceCache, cfg *config.Config) *PriceService {
	return &PriceService{
		api:   api,
		cache: cache,
		cfg:   cfg,
	}
}

// FetchMany returns a price for every ticker it could resolve. Tickers whose
// lookup failed or returned a non positive price are absent from prices and
// listed, sorted, in unavailable. A single failure never fails the batch.
func (s *PriceService) FetchMany(ctx context.Context, tickers []string) (prices map[string]decimal.Decimal, unavailable []string) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PriceService.FetchMany"

	slog.Debug("FetchMany start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("tickers", len(tickers)))
	defer func() {
		slog.Debug("FetchMany finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("resolved", len(prices)), slog.Int("unavailable", len(unavailable)))
	}()

	tickers = dedupe(tickers)
	prices = make(map[string]decimal.Decimal, len(tickers))
	unavailable = make([]string, 0)
	if len(tickers) == 0 {
		return prices, unavailable
	}

	if s.cache != nil {
		cached, err := s.cache.GetPrices(ctx, tickers)
		if err != nil {
			slog.Warn("can't get prices from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		for ticker, price := range cached {
			if price.IsPositive() {
				prices[ticker] = price
			}
		}
	}

	misses := make([]string, 0, len(tickers)-len(prices))
	for _, ticker := range tickers {
		if _, ok := prices[ticker]; !ok {
			misses = append(misses, ticker)
		}
	}
	if len(misses) == 0 {
		return prices, unavailable
	}

	fetched := s.fetchFromApi(ctx, misses)
	for _, ticker := range misses {
		price, ok := fetched[ticker]
		if !ok {
			unavailable = append(unavailable, ticker)
			continue
		}
		prices[ticker] = price
	}
	slices.Sort(unavailable)

	if s.cache != nil && len(fetched) > 0 {
		if err := s.cache.SetPrices(ctx, fetched); err != nil {
			slog.Warn("can't set prices to cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}

	if len(unavailable) > 0 {
		slog.Warn("prices unavailable", slog.String("rqID", rqID), slog.String("op", op), slog.String("tickers", strings.Join(unavailable, ",")))
	}

	return prices, unavailable
}

// Refresh drops cached prices so the next FetchMany goes to the api.
func (s *PriceService) Refresh(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.FlushPrices(ctx)
}

func (s *PriceService) fetchFromApi(ctx context.Context, tickers []string) map[string]decimal.Decimal {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PriceService.fetchFromApi"

	var mu sync.Mutex
	res := make(map[string]decimal.Decimal, len(tickers))

	g := errgroup.Group{}
	if s.cfg.API.FetchConcurrency > 0 {
		g.SetLimit(s.cfg.API.FetchConcurrency)
	}

	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			fetchCtx := ctx
			if s.cfg.API.FetchTimeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.API.FetchTimeout)
				defer cancel()
			}

			quote, err := s.api.GetQuote(fetchCtx, ticker)
			if err != nil {
				if errors.Is(err, externalApi.ErrNotFound) {
					slog.Warn("ticker not found in price api", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker))
				} else {
					slog.Error("got error from api.GetQuote", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.String("err", err.Error()))
				}
				return nil
			}

			if !quote.Price.IsPositive() {
				slog.Warn("non positive price", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.String("price", quote.Price.String()))
				return nil
			}

			if quote.Currency != "" && s.cfg.Report.Currency != "" && !strings.EqualFold(quote.Currency, s.cfg.Report.Currency) {
				slog.Warn("quote currency differs from report currency, value is not converted",
					slog.String("rqID", rqID),
					slog.String("op", op),
					slog.String("ticker", ticker),
					slog.String("currency", quote.Currency),
				)
			}

			mu.Lock()
			res[ticker] = quote.Price
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	return res
}

func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	res := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if ticker == "" {
			continue
		}
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		res = append(res, ticker)
	}
	return res
}
