package inquiry

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/m3rciful/kennelbot/core/fileutil"
	"github.com/m3rciful/kennelbot/core/logger"
)

// FileStore keeps the inquiry log as a JSON list. Every append rewrites the
// file atomically.
type FileStore struct {
	path string

	mu      sync.Mutex
	records []Record
}

// OpenFile loads existing records from path. A missing file is an empty log.
func OpenFile(ctx context.Context, path string) (*FileStore, error) {
	var records []Record
	if _, err := fileutil.ReadJSON(path, &records); err != nil {
		return nil, persistErr("load", err)
	}
	logger.LogEvent(ctx, logger.Inquiry, slog.LevelInfo, "open",
		slog.String("status", "ok"),
		slog.String("driver", "file"),
		slog.String("path", path),
		slog.Int("count", len(records)),
	)
	return &FileStore{path: path, records: records}, nil
}

// Append adds r and persists the whole list. On failure the in-memory list
// is rolled back so the next append does not resurrect r.
func (s *FileStore) Append(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return persistErr("append", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	prev := len(s.records)
	s.records = append(s.records, r)
	if err := fileutil.WriteJSON(s.path, s.records); err != nil {
		s.records = s.records[:prev]
		return persistErr("append", err)
	}
	logger.LogEvent(ctx, logger.Inquiry, slog.LevelDebug, "append",
		slog.String("status", "ok"),
		slog.String("driver", "file"),
		slog.Int("count", len(s.records)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// List returns a copy of all records.
func (s *FileStore) List(context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records), nil
}

// Close is a no-op; every append is already on disk.
func (s *FileStore) Close() error { return nil }
