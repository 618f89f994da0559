package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/m3rciful/kennelbot/core/fileutil"
	"github.com/m3rciful/kennelbot/core/logger"
)

// Source is what readers of the catalog depend on.
type Source interface {
	Snapshot() *Catalog
}

// FileStore serves the catalog from a JSON file.
type FileStore struct {
	path     string
	current  atomic.Pointer[Catalog]
	debounce time.Duration
}

// NewFileStore returns a store for the catalog at path. Call Load before Snapshot.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, debounce: 250 * time.Millisecond}
}

// Path returns the catalog file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the catalog file. When the file does not exist the seed catalog
// is written and returned.
func (s *FileStore) Load(ctx context.Context) (*Catalog, error) {
	start := time.Now()
	cat, seeded, err := s.read()
	if err != nil {
		logger.LogEvent(ctx, logger.Catalog, slog.LevelError, "load",
			slog.String("status", "fail"),
			slog.String("path", s.path),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	s.current.Store(cat)
	logger.LogEvent(ctx, logger.Catalog, slog.LevelInfo, "load",
		slog.String("status", "ok"),
		slog.String("path", s.path),
		slog.Int("count", len(cat.Items)),
		slog.Int("available", len(cat.Available())),
		slog.Bool("seeded", seeded),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return cat.Clone(), nil
}

func (s *FileStore) read() (*Catalog, bool, error) {
	var cat Catalog
	found, err := fileutil.ReadJSON(s.path, &cat)
	if err != nil {
		return nil, false, fmt.Errorf("catalog: read %s: %w", s.path, err)
	}
	if !found {
		seed := Seed()
		if err := fileutil.WriteJSON(s.path, seed); err != nil {
			return nil, false, fmt.Errorf("catalog: write seed %s: %w", s.path, err)
		}
		return seed, true, nil
	}
	if err := cat.Validate(); err != nil {
		return nil, false, err
	}
	return &cat, false, nil
}

// Snapshot returns the catalog currently in memory. Callers must not modify it.
func (s *FileStore) Snapshot() *Catalog {
	if c := s.current.Load(); c != nil {
		return c
	}
	return &Catalog{}
}

// Reload re-reads the file. On error the previous snapshot stays in place.
func (s *FileStore) Reload(ctx context.Context) error {
	var cat Catalog
	found, err := fileutil.ReadJSON(s.path, &cat)
	if err == nil && !found {
		err = errors.New("catalog file removed")
	}
	if err == nil {
		err = cat.Validate()
	}
	if err != nil {
		logger.LogEvent(ctx, logger.Catalog, slog.LevelWarn, "reload",
			slog.String("status", "fail"),
			slog.String("path", s.path),
			slog.String("err", err.Error()),
		)
		return err
	}
	s.current.Store(&cat)
	logger.LogEvent(ctx, logger.Catalog, slog.LevelInfo, "reload",
		slog.String("status", "ok"),
		slog.String("path", s.path),
		slog.Int("count", len(cat.Items)),
	)
	return nil
}

// Watch reloads the catalog whenever the file changes until ctx is done.
// The parent directory is watched so editors that replace the file by
// rename are picked up too.
func (s *FileStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: watcher: %w", err)
	}
	target := filepath.Clean(s.path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return fmt.Errorf("catalog: watch %s: %w", filepath.Dir(target), err)
	}
	logger.LogEvent(ctx, logger.Catalog, slog.LevelInfo, "watch",
		slog.String("status", "ok"),
		slog.String("path", target),
	)

	go func() {
		defer w.Close()
		ticker := time.NewTicker(s.debounce)
		defer ticker.Stop()
		pending := false
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == target && !ev.Has(fsnotify.Chmod) {
					pending = true
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.LogEvent(ctx, logger.Catalog, slog.LevelWarn, "watch",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			case <-ticker.C:
				if pending {
					pending = false
					_ = s.Reload(ctx)
				}
			}
		}
	}()
	return nil
}
