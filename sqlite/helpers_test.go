package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gridsight/blobstore"
)

// openTestStore creates a store backed by a fresh database file.
func openTestStore(t *testing.T, tags ...string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	return openTestStoreAt(t, path, tags...)
}

func openTestStoreAt(t *testing.T, path string, tags ...string) *Store {
	t.Helper()
	s, err := Open(path, tags)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustWrite writes a blob and fails the test on error or a false result.
func mustWrite(t *testing.T, w blobstore.Writer, id, tag string, blob []byte) {
	t.Helper()
	ok, err := w.Write(context.Background(), id, tag, blob)
	if err != nil {
		t.Fatalf("Write(%s, %s) failed: %v", id, tag, err)
	}
	if !ok {
		t.Fatalf("Write(%s, %s) = false, want true", id, tag)
	}
}

// mustCommit commits and fails the test on error.
func mustCommit(t *testing.T, w blobstore.Writer) {
	t.Helper()
	if err := w.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}

// getBlob reads one blob and fails the test on error.
func getBlob(t *testing.T, r blobstore.Reader, id, tag string) []byte {
	t.Helper()
	blob, err := blobstore.Get(context.Background(), r, id, tag)
	if err != nil {
		t.Fatalf("Get(%s, %s) failed: %v", id, tag, err)
	}
	return blob
}
