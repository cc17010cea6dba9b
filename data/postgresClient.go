package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const (
	defaultConnAttempts = 10
	connRetryInterval   = time.Second
	migrationsTable     = "portfolio_tracker_migrations"
)

func postgresDSN(cfg config.Postgres) string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s password=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.DbName,
		cfg.SslMode,
		cfg.Password,
	)
}

// ConnectPostgres opens the holdings database and applies pending migrations.
// Connection attempts are retried until they run out or ctx is done.
func ConnectPostgres(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	for attempt := defaultConnAttempts; attempt > 0; attempt-- {
		db, err = sqlx.ConnectContext(ctx, "pgx", postgresDSN(cfg.Postgres))
		if err == nil {
			break
		}

		slog.Info("Postgres is trying to connect", slog.Int("attempts left", attempt-1), slog.String("err", err.Error()))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connRetryInterval):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxIdleTime(time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second)

	slog.Info("Postgres connected", slog.String("db", cfg.Postgres.DbName))

	if err = MigratePostgres(db, cfg.Postgres.MigrationDir); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("postgres migrated successfully")

	return db, nil
}

// MustConnectPostgres is ConnectPostgres for process startup.
func MustConnectPostgres(ctx context.Context, cfg *config.Config) *sqlx.DB {
	db, err := ConnectPostgres(ctx, cfg)
	if err != nil {
		slog.Error("Postgres init failed", slog.String("err", err.Error()))
		panic(err)
	}
	return db
}

func MigratePostgres(db *sqlx.DB, migrationDir string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationDir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration source %s: %w", migrationDir, err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}

	return nil
}
