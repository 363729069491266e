package sqlite

import (
	"context"
	"database/sql"
	"errors"
)

const (
	insertIDIndexSQL = "insert into " + idIndexTable + " (entity_id) values (?)"
	selectIDIndexSQL = "select id from " + idIndexTable + " where entity_id = ?"
	deleteIDIndexSQL = "delete from " + idIndexTable + " where id = ?"
)

// idIndex maps logical ids to integer surrogate keys. It is the single
// source of truth for whether a logical id exists.
//
// All three operations run on lazily-prepared cached statements scoped to
// one connection. After any statement on a SQLite connection fails, every
// outstanding prepared statement on that connection is invalid, so each
// error path drops all cached statements before re-raising.
type idIndex struct {
	insertStmt *lazyStmt
	selectStmt *lazyStmt
	deleteStmt *lazyStmt
}

func newIDIndex(connect connSupplier) *idIndex {
	return &idIndex{
		insertStmt: &lazyStmt{query: insertIDIndexSQL, connect: connect},
		selectStmt: &lazyStmt{query: selectIDIndexSQL, connect: connect},
		deleteStmt: &lazyStmt{query: deleteIDIndexSQL, connect: connect},
	}
}

// lookup returns the surrogate key for id, or false if id is not indexed.
func (x *idIndex) lookup(ctx context.Context, id string) (int64, bool, error) {
	stmt, err := x.selectStmt.get(ctx)
	if err != nil {
		x.close()
		return 0, false, err
	}
	var key int64
	err = stmt.QueryRowContext(ctx, id).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		x.close()
		return 0, false, err
	}
	return key, true, nil
}

// create assigns a fresh surrogate key to id. It fails with a uniqueness
// violation if id is already indexed; the writer's two-phase insert
// protocol relies on exactly that failure to detect duplicate writes.
func (x *idIndex) create(ctx context.Context, id string) error {
	stmt, err := x.insertStmt.get(ctx)
	if err != nil {
		x.close()
		return err
	}
	if _, err := stmt.ExecContext(ctx, id); err != nil {
		x.close()
		return err
	}
	return nil
}

// delete removes the index entry for a surrogate key, reporting whether a
// row was removed.
func (x *idIndex) delete(ctx context.Context, key int64) (bool, error) {
	stmt, err := x.deleteStmt.get(ctx)
	if err != nil {
		x.close()
		return false, err
	}
	res, err := stmt.ExecContext(ctx, key)
	if err != nil {
		x.close()
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		x.close()
		return false, err
	}
	return n > 0, nil
}

func (x *idIndex) close() {
	x.insertStmt.close()
	x.selectStmt.close()
	x.deleteStmt.close()
}
