package priceApi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi"
	"github.com/KotFed0t/portfolio_tracker/internal/model/priceModel"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const chartUrl = "/v8/finance/chart/{symbol}"

type PriceApi struct {
	client        *resty.Client
	numericSuffix string
}

func New(cfg *config.Config) *PriceApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.PriceApi.Url).
		SetHeader("User-Agent", "Mozilla/5.0 (portfolio_tracker)")
	return &PriceApi{client: client, numericSuffix: cfg.API.PriceApi.NumericTickerSuffix}
}

// GetQuote returns the latest close for ticker. Tickers consisting only of
// digits (005930, 360750) are KRX codes and get the numeric market suffix,
// everything else is looked up as a US symbol.
func (a *PriceApi) GetQuote(ctx context.Context, ticker string) (priceModel.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PriceApi.GetQuote"
	symbol := a.resolveSymbol(ticker)

	slog.Debug("start PriceApi.GetQuote request", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":    "5d",
			"interval": "1d",
		}).
		Get(chartUrl)

	if err != nil {
		slog.Error("error while dialing PriceApi", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("op", op))
		return priceModel.Quote{}, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		slog.Warn("symbol not found in PriceApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
		return priceModel.Quote{}, externalApi.ErrNotFound
	}

	if resp.IsError() {
		slog.Error("unexpected PriceApi status", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID), slog.String("op", op))
		return priceModel.Quote{}, fmt.Errorf("price api status %d", resp.StatusCode())
	}

	rawChart := priceModel.RawChart{}
	err = json.Unmarshal(resp.Body(), &rawChart)
	if err != nil {
		slog.Error("can't unmarshall response into priceModel.RawChart", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("op", op))
		return priceModel.Quote{}, err
	}

	quote, err := a.parseRawChart(rawChart)
	if err != nil {
		if !errors.Is(err, externalApi.ErrNotFound) {
			slog.Error("can't parse raw data", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("op", op))
		}
		return priceModel.Quote{}, err
	}
	quote.Ticker = ticker

	slog.Debug("PriceApi.GetQuote request complete", slog.String("rqID", rqID), slog.String("op", op), slog.String("price", quote.Price.String()))

	return quote, nil
}

func (a *PriceApi) resolveSymbol(ticker string) string {
	ticker = strings.TrimSpace(ticker)
	if ticker != "" && strings.IndexFunc(ticker, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		return ticker + a.numericSuffix
	}
	return strings.ToUpper(ticker)
}

func (a *PriceApi) parseRawChart(rawChart priceModel.RawChart) (priceModel.Quote, error) {
	if rawChart.Chart.Error != nil {
		if rawChart.Chart.Error.Code == "Not Found" {
			return priceModel.Quote{}, externalApi.ErrNotFound
		}
		return priceModel.Quote{}, fmt.Errorf("chart error %s: %s", rawChart.Chart.Error.Code, rawChart.Chart.Error.Description)
	}

	if len(rawChart.Chart.Result) == 0 {
		return priceModel.Quote{}, externalApi.ErrNotFound
	}

	result := rawChart.Chart.Result[0]
	quote := priceModel.Quote{
		Symbol:   result.Meta.Symbol,
		Currency: result.Meta.Currency,
	}

	// последний непустой close, иначе текущая рыночная цена
	var price *float64
	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil {
				price = closes[i]
				break
			}
		}
	}
	if price == nil {
		price = result.Meta.RegularMarketPrice
	}
	if price == nil {
		return priceModel.Quote{}, externalApi.ErrNotFound
	}

	quote.Price = decimal.NewFromFloat(*price)

	return quote, nil
}
