package testutil

import (
	"path/filepath"
	"testing"

	"github.com/sappho-media/sappho/internal/store"
)

// NewStore creates an in-memory SQLiteStore for testing.
// The store is automatically closed when the test completes.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewFileStore creates a file-backed SQLiteStore under the test's temp
// directory and returns it along with the database path. Backup tests use
// this where the database must exist as a real file on disk.
func NewFileStore(t *testing.T) (*store.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sappho.db")
	db, err := store.New(path)
	if err != nil {
		t.Fatalf("testutil.NewFileStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}
