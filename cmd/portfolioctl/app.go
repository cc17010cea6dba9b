package main

import (
	"context"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data"
	"github.com/KotFed0t/portfolio_tracker/data/repository/postgres"
	"github.com/KotFed0t/portfolio_tracker/data/repository/xlsx"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi/priceApi"
	"github.com/KotFed0t/portfolio_tracker/internal/reportGenerator/xlsxGenerator"
	"github.com/KotFed0t/portfolio_tracker/internal/service/portfolioService"
	"github.com/KotFed0t/portfolio_tracker/internal/service/priceService"
)

// newPortfolioService wires the service without redis and Google Drive: the cli
// always fetches fresh prices. cleanup releases the postgres connection if one was opened.
func newPortfolioService(ctx context.Context, cfg *config.Config) (srv *portfolioService.PortfolioService, cleanup func(), err error) {
	store, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	prices := priceService.New(priceApi.New(cfg), nil, cfg)
	return portfolioService.New(store, prices, xlsxGenerator.New(cfg), nil, cfg), cleanup, nil
}

func newStore(ctx context.Context, cfg *config.Config) (portfolioService.HoldingsStore, func(), error) {
	if cfg.Store.Driver == config.StoreDriverPostgres {
		db, err := data.ConnectPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewPostgres(db), func() { _ = db.Close() }, nil
	}
	return xlsx.New(cfg.Store.XlsxPath), func() {}, nil
}
