package inquiry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(name string, uid int64) Record {
	return Record{
		Date:    FormatDate(time.Date(2024, 5, 1, 10, 30, 0, 123456000, time.Local)),
		Name:    name,
		Phone:   "555-1234",
		Email:   "a@b.com",
		Message: "Interested in Bruno",
		UserID:  uid,
	}
}

func storeSuite(t *testing.T, open func(t *testing.T) (Store, func() Store)) {
	ctx := context.Background()

	t.Run("append and list in order", func(t *testing.T) {
		s, _ := open(t)
		require.NoError(t, s.Append(ctx, sample("Alice", 1)))
		require.NoError(t, s.Append(ctx, sample("Bob", 2)))

		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, sample("Alice", 1), got[0])
		assert.Equal(t, "Bob", got[1].Name)
	})

	t.Run("survives reopen", func(t *testing.T) {
		s, reopen := open(t)
		require.NoError(t, s.Append(ctx, sample("Alice", 7)))
		require.NoError(t, s.Close())

		again := reopen()
		defer again.Close()
		got, err := again.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(7), got[0].UserID)
	})

	t.Run("concurrent appends", func(t *testing.T) {
		s, _ := open(t)
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Append(ctx, sample("user", int64(i))))
			}()
		}
		wg.Wait()
		got, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 20)
	})
}

func TestFileStore(t *testing.T) {
	storeSuite(t, func(t *testing.T) (Store, func() Store) {
		path := filepath.Join(t.TempDir(), "inquiries.json")
		s, err := OpenFile(context.Background(), path)
		require.NoError(t, err)
		return s, func() Store {
			again, err := OpenFile(context.Background(), path)
			require.NoError(t, err)
			return again
		}
	})
}

func TestSQLiteStore(t *testing.T) {
	storeSuite(t, func(t *testing.T) (Store, func() Store) {
		path := filepath.Join(t.TempDir(), "kennel.db")
		s, err := OpenSQLite(context.Background(), path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s, func() Store {
			again, err := OpenSQLite(context.Background(), path)
			require.NoError(t, err)
			return again
		}
	})
}

func TestFileStoreRollbackOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inquiries.json")
	s, err := OpenFile(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), sample("Alice", 1)))

	// Replace the file with a non-empty directory so the rename fails.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "x"), nil, 0o644))

	err = s.Append(context.Background(), sample("Bob", 2))
	var perr *PersistError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "PERSISTENCE_FAILURE", perr.Code())

	got, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1, "failed append must not stay in memory")
	assert.Equal(t, "Alice", got[0].Name)
}

func TestOpenFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inquiries.json")
	require.NoError(t, os.WriteFile(path, []byte("[{"), 0o644))

	_, err := OpenFile(context.Background(), path)
	var perr *PersistError
	assert.ErrorAs(t, err, &perr)
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 30, 0, 123456789, time.UTC)
	assert.Equal(t, "2024-05-01T10:30:00.123456", FormatDate(ts))
}
