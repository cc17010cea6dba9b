package priceApi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApi(t *testing.T, handler http.HandlerFunc) *PriceApi {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		API: config.API{
			Timeout: time.Second,
			PriceApi: config.PriceApi{
				Url:                 srv.URL,
				NumericTickerSuffix: ".KS",
			},
		},
	}
	return New(cfg)
}

func TestResolveSymbol(t *testing.T) {
	api := &PriceApi{numericSuffix: ".KS"}

	tests := []struct {
		ticker string
		symbol string
	}{
		{ticker: "005930", symbol: "005930.KS"},
		{ticker: " 360750 ", symbol: "360750.KS"},
		{ticker: "SPY", symbol: "SPY"},
		{ticker: "spy", symbol: "SPY"},
		{ticker: "BRK-B", symbol: "BRK-B"},
		{ticker: "0050A", symbol: "0050A"},
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			assert.Equal(t, tt.symbol, api.resolveSymbol(tt.ticker))
		})
	}
}

func TestGetQuote_LastClose(t *testing.T) {
	var gotPath, gotRange string
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"currency":"KRW","symbol":"005930.KS","regularMarketPrice":70500},
			"indicators":{"quote":[{"close":[69000,71000,null]}]}}],"error":null}}`))
	})

	quote, err := api.GetQuote(context.Background(), "005930")

	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/005930.KS", gotPath)
	assert.Equal(t, "5d", gotRange)
	assert.Equal(t, "005930", quote.Ticker)
	assert.Equal(t, "KRW", quote.Currency)
	assert.True(t, decimal.NewFromInt(71000).Equal(quote.Price), quote.Price.String())
}

func TestGetQuote_FallbackToMarketPrice(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"currency":"USD","symbol":"SPY","regularMarketPrice":512.34},
			"indicators":{"quote":[{"close":[null]}]}}],"error":null}}`))
	})

	quote, err := api.GetQuote(context.Background(), "SPY")

	require.NoError(t, err)
	assert.Equal(t, "512.34", quote.Price.String())
}

func TestGetQuote_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{
			name:    "404",
			status:  http.StatusNotFound,
			payload: `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
		},
		{
			name:    "empty result",
			status:  http.StatusOK,
			payload: `{"chart":{"result":[],"error":null}}`,
		},
		{
			name:    "no prices",
			status:  http.StatusOK,
			payload: `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"XYZ"},"indicators":{"quote":[]}}],"error":null}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			})

			_, err := api.GetQuote(context.Background(), "XYZ")

			assert.ErrorIs(t, err, externalApi.ErrNotFound)
		})
	}
}

func TestGetQuote_ServerError(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := api.GetQuote(context.Background(), "SPY")

	require.Error(t, err)
	assert.NotErrorIs(t, err, externalApi.ErrNotFound)
}

func TestGetQuote_InvalidJson(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := api.GetQuote(context.Background(), "SPY")

	assert.Error(t, err)
}
