package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/kennelbot/core/telegram"
	"github.com/m3rciful/kennelbot/kennel/config"
	"github.com/m3rciful/kennelbot/kennel/inquiry"
)

func testConfig(t *testing.T, driver string) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AppConfig{}
	cfg.Telegram.Token = "123:abc"
	cfg.Logging.Format = "kv"
	cfg.Storage.Driver = driver
	cfg.Storage.InquiriesPath = filepath.Join(dir, "inquiries.json")
	cfg.Database.SQLitePath = filepath.Join(dir, "kennel.db")
	cfg.Catalog.Path = filepath.Join(dir, "puppies.json")
	cfg.Health.Disabled = true
	require.NoError(t, config.Normalize(cfg))
	return cfg
}

func TestNewSeedsCatalogAndBuildsOptions(t *testing.T) {
	cfg := testConfig(t, config.StorageFile)

	a, err := New(t.Context(), cfg)
	require.NoError(t, err)
	assert.FileExists(t, cfg.Catalog.Path)
	assert.Len(t, a.catalog.Snapshot().Items, 2)
	assert.Same(t, &cfg.Config, a.CoreConfig())

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.NotEmpty(t, opts.Routes)
	assert.NotEmpty(t, opts.Middlewares)
	assert.NotNil(t, opts.Registry)
	assert.Equal(t, 2, opts.DispatcherOptions.MaxRetries)
	require.NoError(t, a.Close())
}

func TestSQLiteStorage(t *testing.T) {
	cfg := testConfig(t, config.StorageSQLite)

	a, err := New(t.Context(), cfg)
	require.NoError(t, err)
	require.NoError(t, a.store.Append(t.Context(), inquiry.Record{Name: "Alice", UserID: 1}))
	require.NoError(t, a.Close())

	store, err := OpenStore(t.Context(), cfg)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.List(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Name)
}

func TestLifecycle(t *testing.T) {
	cfg := testConfig(t, config.StorageFile)
	cfg.Catalog.Watch = true
	cfg.Session.IdleTimeout = time.Minute

	a, err := New(t.Context(), cfg)
	require.NoError(t, err)
	require.NoError(t, a.onStart(t.Context(), tg.Runtime{}))

	done := make(chan error, 1)
	go func() { done <- a.onStop(t.Context(), tg.Runtime{}) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("onStop did not return")
	}
}

func TestNotInitialized(t *testing.T) {
	_, err := (&App{}).TelegramRunOptions()
	assert.Error(t, err)
}
