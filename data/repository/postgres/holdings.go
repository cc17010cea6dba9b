package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/dbModel"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

func (r *Postgres) LoadPositions(ctx context.Context) (positions []model.Position, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.LoadPositions"
	query := `
		SELECT ticker, name, category, quantity, target_weight
		FROM portfolio
		ORDER BY ordinal`

	slog.Debug("LoadPositions start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("LoadPositions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("LoadPositions completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(positions)))
		}
	}()

	var rows []dbModel.Position
	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	positions = make([]model.Position, 0, len(rows))
	for _, row := range rows {
		positions = append(positions, dbConverter.ConvertPosition(row))
	}

	return positions, nil
}

func (r *Postgres) LoadHistory(ctx context.Context) (history []model.HistoryRecord, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.LoadHistory"
	query := `
		SELECT date, total_asset, profit_rate, memo
		FROM history
		ORDER BY history_id`

	slog.Debug("LoadHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("LoadHistory failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("LoadHistory completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(history)))
		}
	}()

	var rows []dbModel.HistoryRecord
	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	history = make([]model.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		history = append(history, dbConverter.ConvertHistoryRecord(row))
	}

	return history, nil
}

func (r *Postgres) AppendHistory(ctx context.Context, record model.HistoryRecord) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.AppendHistory"
	query := `INSERT INTO history(date, total_asset, profit_rate, memo) VALUES($1, $2, $3, $4)`

	slog.Debug("AppendHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("date", record.Date))
	defer func() {
		if err != nil {
			slog.Error("AppendHistory failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("AppendHistory completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, record.Date, record.TotalAsset, record.ProfitRate, record.Memo)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return err
	}

	return nil
}

// ReplaceAll overwrites both tables with the given snapshot in one transaction.
func (r *Postgres) ReplaceAll(ctx context.Context, positions []model.Position, history []model.HistoryRecord) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ReplaceAll"

	slog.Debug("ReplaceAll start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("positions", len(positions)), slog.Int("history", len(history)))

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.txOrDb(ctx).ExecContext(ctx, `DELETE FROM history`); err != nil {
			return err
		}
		if _, err := r.txOrDb(ctx).ExecContext(ctx, `DELETE FROM portfolio`); err != nil {
			return err
		}

		for _, position := range positions {
			_, err := r.txOrDb(ctx).ExecContext(
				ctx,
				`INSERT INTO portfolio(ticker, name, category, quantity, target_weight) VALUES($1, $2, $3, $4, $5)`,
				position.Ticker,
				position.Name,
				position.Category,
				position.Quantity,
				position.TargetWeight,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: duplicate ticker %s", repository.ErrInvalidData, position.Ticker)
				}
				return err
			}
		}

		for _, record := range history {
			if err := r.AppendHistory(ctx, record); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		slog.Error("ReplaceAll failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Info("ReplaceAll completed", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
