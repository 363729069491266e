package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gridsight/blobstore"
)

const (
	versionTable  = "schema_version"
	idIndexTable  = "entity_ids"
	metadataTable = "metadata"

	// schemaVersion is compared against the on-disk marker on every fresh
	// connection. A mismatch is a fatal open-time error; there is no
	// automatic migration.
	schemaVersion = "1"
)

// connSupplier hands out the backend connection a component operates on.
// Injecting it (rather than owning the connection directly) is what lets a
// Store share one connection between its Reader and Writer.
type connSupplier func(ctx context.Context) (*sql.Conn, error)

// ConnectionFactory opens connections to a blob store database file,
// bootstrapping the schema and enforcing the schema version on each one.
type ConnectionFactory struct {
	path string
	tags []string
	db   *sql.DB
}

// NewConnectionFactory validates the tag set and returns a factory for
// connections to the database file at path. No file I/O happens here; the
// file is opened (and created if absent) by the first Connect.
func NewConnectionFactory(path string, tags []string) (*ConnectionFactory, error) {
	for _, tag := range tags {
		if err := validateTagName(tag); err != nil {
			return nil, err
		}
	}
	return &ConnectionFactory{path: path, tags: append([]string(nil), tags...)}, nil
}

// validateTagName rejects tag names that cannot be safely spliced into SQL
// as table identifiers. This is an allow-list check, not escaping.
func validateTagName(tag string) error {
	if tag == "" {
		return &blobstore.TagError{Tag: tag, Reason: "tag must not be empty"}
	}
	if tag == idIndexTable || tag == versionTable {
		return &blobstore.TagError{Tag: tag, Reason: "tag is a reserved table name"}
	}
	for _, c := range tag {
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '_') {
			return &blobstore.TagError{Tag: tag, Reason: "tag may only contain letters, digits and underscores"}
		}
	}
	return nil
}

// Tags returns the registered tag set.
func (f *ConnectionFactory) Tags() []string {
	return append([]string(nil), f.tags...)
}

// Connect opens a connection to the database file, verifies the schema
// version marker and creates any missing tables. On any bootstrap failure
// the connection is closed before the error is returned; there is no
// partial rollback, retrying means calling Connect again.
func (f *ConnectionFactory) Connect(ctx context.Context) (*sql.Conn, error) {
	if f.db == nil {
		db, err := sql.Open("sqlite3", "file:"+f.path+"?cache=shared&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("open database %q: %w", f.path, err)
		}
		f.db = db
	}

	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to database %q: %w", f.path, err)
	}

	if err := f.bootstrap(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialise sqlite database %q: %w", f.path, err)
	}
	return conn, nil
}

// Close releases the underlying pool. Connections already handed out stay
// usable until they are closed themselves.
func (f *ConnectionFactory) Close() error {
	if f.db == nil {
		return nil
	}
	err := f.db.Close()
	f.db = nil
	return err
}

func (f *ConnectionFactory) bootstrap(ctx context.Context, conn *sql.Conn) error {
	if err := checkVersion(ctx, conn); err != nil {
		return err
	}
	if err := createIDIndexTable(ctx, conn); err != nil {
		return err
	}
	if err := createMetadataTable(ctx, conn); err != nil {
		return err
	}
	return createBlobTables(ctx, conn, f.tags)
}

// checkVersion installs the version marker on a fresh database, or compares
// the persisted marker against schemaVersion on an existing one.
func checkVersion(ctx context.Context, conn *sql.Conn) error {
	var name string
	err := conn.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", versionTable,
	).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := conn.ExecContext(ctx, "CREATE TABLE "+versionTable+" (version TEXT)"); err != nil {
			return fmt.Errorf("create version table: %w", err)
		}
		if _, err := conn.ExecContext(ctx, "INSERT INTO "+versionTable+" (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("insert schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("query version table: %w", err)
	}

	var found sql.NullString
	err = conn.QueryRowContext(ctx, "SELECT version FROM "+versionTable).Scan(&found)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if !found.Valid || found.String != schemaVersion {
		return fmt.Errorf("wrong schema version, expected %s found %s", schemaVersion, found.String)
	}
	return nil
}

func createIDIndexTable(ctx context.Context, conn *sql.Conn) error {
	// AUTOINCREMENT keeps surrogate keys monotonic: a key is never reused
	// after its id index entry is deleted.
	_, err := conn.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS "+idIndexTable+" (id INTEGER PRIMARY KEY AUTOINCREMENT, entity_id TEXT)")
	if err != nil {
		return fmt.Errorf("create id index table: %w", err)
	}
	_, err = conn.ExecContext(ctx,
		"CREATE UNIQUE INDEX IF NOT EXISTS "+idIndexTable+"_idx ON "+idIndexTable+" (entity_id)")
	if err != nil {
		return fmt.Errorf("create index on id index table: %w", err)
	}
	return nil
}

func createMetadataTable(ctx context.Context, conn *sql.Conn) error {
	_, err := conn.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS "+metadataTable+" (key TEXT, value TEXT)")
	if err != nil {
		return fmt.Errorf("create metadata table: %w", err)
	}
	return nil
}

func createBlobTables(ctx context.Context, conn *sql.Conn, tags []string) error {
	for _, tag := range tags {
		// WITHOUT ROWID: the surrogate key is the row's storage key, there
		// is no secondary rowid.
		_, err := conn.ExecContext(ctx,
			"CREATE TABLE IF NOT EXISTS "+tag+" (id INTEGER PRIMARY KEY, data BLOB) WITHOUT ROWID")
		if err != nil {
			return fmt.Errorf("create blob table %s: %w", tag, err)
		}
	}
	return nil
}
