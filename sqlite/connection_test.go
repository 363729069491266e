package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gridsight/blobstore"
)

func TestOpenCreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	store := openTestStoreAt(t, path, "voltage")

	// The connection is lazy, so touch the store before checking the file.
	mustWrite(t, store.Writer(), "a", "voltage", []byte{1})
	mustCommit(t, store.Writer())

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestOpenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	store, err := Open(path, []string{"voltage"})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	mustWrite(t, store.Writer(), "a", "voltage", []byte{1, 2, 3})
	mustCommit(t, store.Writer())
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	store = openTestStoreAt(t, path, "voltage")
	if got := getBlob(t, store.Reader(), "a", "voltage"); string(got) != "\x01\x02\x03" {
		t.Fatalf("blob after reopen = %v, want [1 2 3]", got)
	}
}

func TestOpenRejectsInvalidTags(t *testing.T) {
	tests := []struct {
		name string
		tags []string
	}{
		{"empty tag", []string{""}},
		{"reserved id index", []string{idIndexTable}},
		{"reserved version table", []string{versionTable}},
		{"injection attempt", []string{"voltage; DROP TABLE entity_ids"}},
		{"whitespace", []string{"volt age"}},
		{"hyphen", []string{"volt-age"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "never.db")
			_, err := Open(path, tt.tags)
			if err == nil {
				t.Fatalf("Open(%v) succeeded, want error", tt.tags)
			}
			if !blobstore.IsTagError(err) {
				t.Fatalf("Open(%v) error = %v, want TagError", tt.tags, err)
			}
			// Validation happens before any file I/O.
			if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
				t.Fatalf("database file created despite invalid tag %v", tt.tags)
			}
		})
	}
}

func TestOpenAllowsValidTagNames(t *testing.T) {
	store := openTestStore(t, "voltage_2024", "CASE_sensitive", "x")
	mustWrite(t, store.Writer(), "a", "voltage_2024", []byte{1})
	mustCommit(t, store.Writer())
}

func TestSchemaVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versioned.db")

	store, err := Open(path, []string{"voltage"})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	mustWrite(t, store.Writer(), "a", "voltage", []byte{1})
	mustCommit(t, store.Writer())
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Fake a future schema.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() failed: %v", err)
	}
	if _, err := db.Exec("UPDATE " + versionTable + " SET version = '99'"); err != nil {
		t.Fatalf("failed to rewrite schema version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("failed to close raw connection: %v", err)
	}

	store = openTestStoreAt(t, path, "voltage")
	_, err = blobstore.AllIDs(context.Background(), store.Reader())
	if err == nil {
		t.Fatal("read from mismatched schema succeeded, want error")
	}
	if !strings.Contains(err.Error(), "expected 1 found 99") {
		t.Fatalf("version mismatch error = %q, want both versions named", err)
	}
}

func TestConnectionFactoryTagsReturnsCopy(t *testing.T) {
	factory, err := NewConnectionFactory(filepath.Join(t.TempDir(), "t.db"), []string{"voltage"})
	if err != nil {
		t.Fatalf("NewConnectionFactory() failed: %v", err)
	}
	defer factory.Close()

	tags := factory.Tags()
	tags[0] = "mutated"
	if got := factory.Tags(); got[0] != "voltage" {
		t.Fatalf("Tags() affected by caller mutation: %v", got)
	}
}

func TestStoreCloseIdempotent(t *testing.T) {
	store := openTestStore(t, "voltage")
	mustWrite(t, store.Writer(), "a", "voltage", []byte{1})
	mustCommit(t, store.Writer())

	if err := store.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
}

func TestStoreRejectsUseAfterClose(t *testing.T) {
	store := openTestStore(t, "voltage")
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if _, err := store.Writer().Write(context.Background(), "a", "voltage", []byte{1}); err == nil {
		t.Fatal("Write() after Close() succeeded, want error")
	}
}
