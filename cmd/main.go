package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data"
	"github.com/KotFed0t/portfolio_tracker/data/cache"
	"github.com/KotFed0t/portfolio_tracker/data/repository/postgres"
	"github.com/KotFed0t/portfolio_tracker/data/repository/xlsx"
	"github.com/KotFed0t/portfolio_tracker/data/session"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi/priceApi"
	"github.com/KotFed0t/portfolio_tracker/internal/reportGenerator/xlsxGenerator"
	"github.com/KotFed0t/portfolio_tracker/internal/scheduler"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/internal/service/portfolioService"
	"github.com/KotFed0t/portfolio_tracker/internal/service/priceService"
	"github.com/KotFed0t/portfolio_tracker/internal/tgbot"
	"github.com/KotFed0t/portfolio_tracker/internal/transport/telegram"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	if cfg.Telegram.Token == "" {
		slog.Error("TELEGRAM_TOKEN is required to run the bot")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store portfolioService.HoldingsStore
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pgClient := data.MustConnectPostgres(ctx, cfg)
		defer pgClient.Close()
		store = postgres.NewPostgres(pgClient)
	default:
		store = xlsx.New(cfg.Store.XlsxPath)
	}
	slog.Info("holdings store selected", slog.String("driver", cfg.Store.Driver))

	redisClient := data.NewRedisClient(ctx, cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	priceSrv := priceService.New(priceApi.New(cfg), redisCache, cfg)

	reportGenerator := xlsxGenerator.New(cfg)

	var cloudStorage portfolioService.CloudStorage
	if cfg.GoogleDrive.Enabled() {
		cloudStorage = googleDriveApi.New(ctx, cfg)
	}

	portfolioSrv := portfolioService.New(store, priceSrv, reportGenerator, cloudStorage, cfg)

	sched := scheduler.New(cfg.Location())
	sched.NewIntervalJob("warm price cache", portfolioSrv.WarmPriceCache, cfg.Jobs.WarmPriceCacheInterval, true)
	if cfg.Jobs.DailyRecordCrontab != "" {
		recordFn := func(ctx context.Context) error {
			_, err := portfolioSrv.RecordScheduled(ctx, "Auto Record")
			return err
		}
		sched.NewCrontabJob("daily record", scheduler.IgnoreErrors(recordFn, service.ErrAlreadyRecorded), cfg.Jobs.DailyRecordCrontab, false)
	}
	if cloudStorage != nil {
		sched.NewIntervalJob("cleanup drive backups", portfolioSrv.CleanupBackups, cfg.Jobs.CleanupBackupsInterval, false)
	}
	sched.Start()
	defer sched.Stop()

	tgController := telegram.NewController(cfg, portfolioSrv, redisSession)

	tgBot := tgbot.New(cfg, tgController, redisSession)
	tgBot.Start()
	defer tgBot.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
