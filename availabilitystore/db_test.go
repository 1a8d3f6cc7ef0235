package availabilitystore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupDB opens a fresh bbolt-backed Database in a t.TempDir(), closed
// automatically on test cleanup. Mirrors the teacher lineage's
// setupDB(t) helper used throughout db/kv and db/slasherkv tests.
func setupDB(t *testing.T) Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "av-store.db")
	db, err := OpenBoltDatabase(path, 0)
	if err != nil {
		t.Fatalf("open bolt database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close bolt database: %v", err)
		}
	})
	return db
}

func TestOpenBoltDatabaseHonorsCacheSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "av-store.db")
	const cacheSize = 4 << 20 // 4 MiB

	db, err := OpenBoltDatabase(path, cacheSize)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// bbolt grows the file to back its initial mmap region at open
	// time, so a non-zero cacheSize must leave the file at least that
	// large; with no cacheSize the file stays at bbolt's own tiny
	// default allocation.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, info.Size(), int64(cacheSize))
}
