package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kennelbot/core/logger"
)

// EnsureSchema applies idempotent DDL statements to a SQLite database.
// golang-migrate ships no pure-Go SQLite driver, so the sqlite path keeps its
// schema as CREATE ... IF NOT EXISTS statements instead.
func EnsureSchema(ctx context.Context, db *sqlx.DB, statements ...string) error {
	start := time.Now()
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			logger.MIG.Error("schema apply failed",
				slog.String("event", "apply"),
				slog.String("driver", DriverSQLite),
				slog.String("err", err.Error()),
			)
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.String("driver", DriverSQLite),
		slog.Int("files", len(statements)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}
