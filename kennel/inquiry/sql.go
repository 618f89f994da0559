package inquiry

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kennelbot/core/database"
	"github.com/m3rciful/kennelbot/core/logger"
)

// SQLiteSchema mirrors migrations/000001_create_inquiries.up.sql for SQLite.
var SQLiteSchema = []string{
	`CREATE TABLE IF NOT EXISTS inquiries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT NOT NULL,
		message TEXT NOT NULL,
		user_id BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS inquiries_user_id_idx ON inquiries (user_id)`,
}

const (
	insertInquiry = `INSERT INTO inquiries (date, name, phone, email, message, user_id)
		VALUES (:date, :name, :phone, :email, :message, :user_id)`
	selectInquiries = `SELECT date, name, phone, email, message, user_id FROM inquiries ORDER BY id`
)

// SQLStore keeps inquiries in a SQL table. The schema must already exist.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// NewSQLStore wraps an open database. driver is used for logging only.
func NewSQLStore(db *sqlx.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// OpenSQLite opens path, applies the schema and returns a ready store.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, persistErr("open", err)
	}
	if err := database.EnsureSchema(ctx, db, SQLiteSchema...); err != nil {
		_ = db.Close()
		return nil, persistErr("open", err)
	}
	return NewSQLStore(db, database.DriverSQLite), nil
}

// Append inserts r in a single statement, which is atomic on both drivers.
func (s *SQLStore) Append(ctx context.Context, r Record) error {
	start := time.Now()
	if _, err := s.db.NamedExecContext(ctx, insertInquiry, r); err != nil {
		return persistErr("append", err)
	}
	logger.LogEvent(ctx, logger.Inquiry, slog.LevelDebug, "append",
		slog.String("status", "ok"),
		slog.String("driver", s.driver),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// List returns all rows in insertion order.
func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	var out []Record
	if err := s.db.SelectContext(ctx, &out, selectInquiries); err != nil {
		return nil, persistErr("list", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
