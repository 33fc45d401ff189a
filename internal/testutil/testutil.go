// Package testutil provides shared test helpers for setting up databases and
// blob roots.
package testutil

import (
	"os"
	"testing"

	"github.com/tallyhq/tally/internal/blob"
	"github.com/tallyhq/tally/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "tally-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestBlobFS creates a temporary blob root.
func TestBlobFS(t *testing.T) *blob.FS {
	t.Helper()
	blobs, err := blob.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return blobs
}
