package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gridsight/blobstore"
)

const selectIDFromIndex = "(select id from " + idIndexTable + " where entity_id = ?)"

const (
	insertSQLFormat       = "insert into %s (id, data) values (" + selectIDFromIndex + ", ?)"
	insertIgnoreSQLFormat = "insert or ignore into %s (id, data) values (" + selectIDFromIndex + ", ?)"
	updateSQLFormat       = "update %s set data = ? where id = " + selectIDFromIndex
	deleteSQLFormat       = "delete from %s where id = " + selectIDFromIndex
)

var errWriterClosed = errors.New("writer connection has been closed")

// Writer implements blobstore.Writer on one connection with autocommit
// disabled: every mutation accumulates in an open transaction until Commit
// or Rollback.
//
// Four statement templates (insert, insert-or-ignore, update, delete) are
// parameterized per tag and cached lazily on first use. SQLite invalidates
// every outstanding prepared statement on a connection the moment any one
// statement fails, so every error path discards all cached statements
// (including the id index's own) before re-raising; the connection itself
// stays usable.
type Writer struct {
	connect  connSupplier
	conn     *sql.Conn
	ownsConn bool
	closed   bool

	tags  map[string]struct{}
	index *idIndex
	meta  *metadata

	insert       *stmtCache
	insertIgnore *stmtCache
	update       *stmtCache
	remove       *stmtCache
}

var _ blobstore.Writer = (*Writer)(nil)

// NewWriter returns a Writer with its own connection, opened (and its
// transaction begun) on first use. The writable tag set is the factory's.
func NewWriter(factory *ConnectionFactory) *Writer {
	w := &Writer{ownsConn: true}
	w.connect = func(ctx context.Context) (*sql.Conn, error) {
		if w.closed {
			return nil, errWriterClosed
		}
		if w.conn == nil {
			conn, err := factory.Connect(ctx)
			if err != nil {
				return nil, err
			}
			if _, err := conn.ExecContext(ctx, "BEGIN"); err != nil {
				conn.Close()
				return nil, err
			}
			w.conn = conn
		}
		return w.conn, nil
	}
	w.init(factory.Tags())
	return w
}

// newSharedWriter returns a Writer over an injected connection supplier.
// The supplier's owner begins the transaction and closes the connection.
func newSharedWriter(connect connSupplier, tags []string) *Writer {
	w := &Writer{}
	w.connect = func(ctx context.Context) (*sql.Conn, error) {
		if w.closed {
			return nil, errWriterClosed
		}
		return connect(ctx)
	}
	w.init(tags)
	return w
}

func (w *Writer) init(tags []string) {
	w.tags = make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		w.tags[tag] = struct{}{}
	}
	w.index = newIDIndex(w.connect)
	w.meta = &metadata{connect: w.connect}
	w.insert = newStmtCache(insertSQLFormat, w.connect)
	w.insertIgnore = newStmtCache(insertIgnoreSQLFormat, w.connect)
	w.update = newStmtCache(updateSQLFormat, w.connect)
	w.remove = newStmtCache(deleteSQLFormat, w.connect)
}

// Write stores the first blob for (id, tag).
//
// Protocol: optimistically INSERT OR IGNORE, resolving the target key via
// the id index subquery. Zero rows affected is ambiguous between "id not
// indexed yet" and "(id, tag) row already exists", so unconditionally
// create the index entry next: for a genuinely new id that succeeds and the
// plain insert then lands on the fresh surrogate; for an already-indexed id
// the creation fails its uniqueness constraint, and that failure is the
// duplicate-write error surfaced to the caller. The ordering is load
// bearing; duplicate detection has no explicit check.
func (w *Writer) Write(ctx context.Context, id, tag string, blob []byte) (bool, error) {
	if err := w.checkTag(tag); err != nil {
		return false, err
	}

	stmt, err := w.insertIgnore.get(ctx, tag)
	if err != nil {
		return false, w.writeFailed(id, err)
	}
	n, err := execAffected(ctx, stmt, id, blob)
	if err != nil {
		return false, w.writeFailed(id, err)
	}
	if n > 0 {
		return true, nil
	}

	// Zero rows: maybe the id has no index entry yet. Create one and retry
	// with the non-ignoring insert.
	if err := w.index.create(ctx, id); err != nil {
		return false, w.writeFailed(id, err)
	}
	stmt, err = w.insert.get(ctx, tag)
	if err != nil {
		return false, w.writeFailed(id, err)
	}
	n, err = execAffected(ctx, stmt, id, blob)
	if err != nil {
		return false, w.writeFailed(id, err)
	}
	return n > 0, nil
}

// Update replaces the blob for an existing (id, tag) row. Zero rows
// affected is a normal false return, not an error.
func (w *Writer) Update(ctx context.Context, id, tag string, blob []byte) (bool, error) {
	if err := w.checkTag(tag); err != nil {
		return false, err
	}
	stmt, err := w.update.get(ctx, tag)
	if err == nil {
		var n int64
		n, err = execAffected(ctx, stmt, blob, id)
		if err == nil {
			return n > 0, nil
		}
	}
	w.resetStatements()
	return false, &blobstore.Error{Msg: "failed to update item " + id, ID: id, Err: err}
}

// Delete removes every registered tag's blob for id, then the id index
// entry. Returns false without further action if id is not indexed.
func (w *Writer) Delete(ctx context.Context, id string) (bool, error) {
	key, ok, err := w.index.lookup(ctx, id)
	if err != nil {
		return false, w.deleteFailed(id, err)
	}
	if !ok {
		return false, nil
	}

	for tag := range w.tags {
		// Individual tags with no row for this id are fine.
		if _, err := w.deleteByID(ctx, id, tag); err != nil {
			return false, w.deleteFailed(id, err)
		}
	}

	ok, err = w.index.delete(ctx, key)
	if err != nil {
		return false, w.deleteFailed(id, err)
	}
	return ok, nil
}

// DeleteTag removes only the named tag's blob for id.
func (w *Writer) DeleteTag(ctx context.Context, id, tag string) (bool, error) {
	if err := w.checkTag(tag); err != nil {
		return false, err
	}
	ok, err := w.deleteByID(ctx, id, tag)
	if err != nil {
		return false, w.deleteFailed(id, err)
	}
	return ok, nil
}

func (w *Writer) deleteByID(ctx context.Context, id, tag string) (bool, error) {
	stmt, err := w.remove.get(ctx, tag)
	if err != nil {
		return false, err
	}
	n, err := execAffected(ctx, stmt, id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// WriteMetadata stores a new metadata key/value pair.
func (w *Writer) WriteMetadata(ctx context.Context, key, value string) (bool, error) {
	ok, err := w.meta.write(ctx, key, value)
	if err != nil {
		w.resetStatements()
		return false, &blobstore.Error{Msg: "failed to write metadata for " + key, ID: key, Err: err}
	}
	return ok, nil
}

// UpdateMetadata replaces the value of an existing metadata key.
func (w *Writer) UpdateMetadata(ctx context.Context, key, value string) (bool, error) {
	ok, err := w.meta.update(ctx, key, value)
	if err != nil {
		w.resetStatements()
		return false, &blobstore.Error{Msg: "failed to update metadata for " + key, ID: key, Err: err}
	}
	return ok, nil
}

// DeleteMetadata removes a metadata key.
func (w *Writer) DeleteMetadata(ctx context.Context, key string) (bool, error) {
	ok, err := w.meta.delete(ctx, key)
	if err != nil {
		w.resetStatements()
		return false, &blobstore.Error{Msg: "failed to delete metadata for " + key, ID: key, Err: err}
	}
	return ok, nil
}

// Commit makes everything written since the last Commit durable and opens
// the next transaction.
func (w *Writer) Commit(ctx context.Context) error {
	conn, err := w.connect(ctx)
	if err == nil {
		if _, err = conn.ExecContext(ctx, "COMMIT"); err == nil {
			_, err = conn.ExecContext(ctx, "BEGIN")
		}
	}
	if err != nil {
		w.resetStatements()
		return &blobstore.Error{Msg: "failed to commit", Err: err}
	}
	return nil
}

// Rollback discards everything written since the last Commit and opens the
// next transaction.
func (w *Writer) Rollback(ctx context.Context) error {
	conn, err := w.connect(ctx)
	if err == nil {
		if _, err = conn.ExecContext(ctx, "ROLLBACK"); err == nil {
			_, err = conn.ExecContext(ctx, "BEGIN")
		}
	}
	if err != nil {
		w.resetStatements()
		return &blobstore.Error{Msg: "failed to rollback", Err: err}
	}
	return nil
}

// Close drops all cached statements and releases the connection if the
// writer owns one. Uncommitted writes are discarded. Safe to call multiple
// times and before the connection was ever opened.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.resetStatements()
	if w.conn != nil && w.ownsConn {
		conn := w.conn
		w.conn = nil
		if err := conn.Close(); err != nil {
			return &blobstore.Error{Msg: "failed to close writer", Err: err}
		}
	}
	return nil
}

func (w *Writer) checkTag(tag string) error {
	if _, ok := w.tags[tag]; !ok {
		return &blobstore.TagError{Tag: tag, Reason: "not registered with this store"}
	}
	return nil
}

// resetStatements discards every cached statement on the connection after
// an error invalidated them. Idempotent; it never fails, so it cannot mask
// the error that triggered it.
func (w *Writer) resetStatements() {
	w.index.close()
	w.insert.close()
	w.insertIgnore.close()
	w.update.close()
	w.remove.close()
}

func (w *Writer) writeFailed(id string, err error) error {
	w.resetStatements()
	return &blobstore.Error{Msg: "failed to insert item " + id, ID: id, Err: err}
}

func (w *Writer) deleteFailed(id string, err error) error {
	w.resetStatements()
	return &blobstore.Error{Msg: "failed to delete item " + id, ID: id, Err: err}
}

func execAffected(ctx context.Context, stmt *sql.Stmt, args ...any) (int64, error) {
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
