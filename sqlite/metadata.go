package sqlite

import (
	"context"
	"database/sql"
	"errors"
)

const (
	insertMetadataSQL = "INSERT INTO " + metadataTable + " (key, value) VALUES (?, ?)"
	updateMetadataSQL = "UPDATE " + metadataTable + " SET value = ? WHERE key = ?"
	deleteMetadataSQL = "DELETE FROM " + metadataTable + " WHERE key = ?"
	selectMetadataSQL = "SELECT value FROM " + metadataTable + " WHERE key = ?"
)

// metadata is the flat string key/value sideband, independent of ids and
// tags. One statement per call, no caching.
type metadata struct {
	connect connSupplier
}

func (m *metadata) write(ctx context.Context, key, value string) (bool, error) {
	return m.exec(ctx, insertMetadataSQL, key, value)
}

func (m *metadata) update(ctx context.Context, key, value string) (bool, error) {
	return m.exec(ctx, updateMetadataSQL, value, key)
}

func (m *metadata) delete(ctx context.Context, key string) (bool, error) {
	return m.exec(ctx, deleteMetadataSQL, key)
}

func (m *metadata) get(ctx context.Context, key string) (string, bool, error) {
	conn, err := m.connect(ctx)
	if err != nil {
		return "", false, err
	}
	var value string
	err = conn.QueryRowContext(ctx, selectMetadataSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (m *metadata) exec(ctx context.Context, query string, args ...any) (bool, error) {
	conn, err := m.connect(ctx)
	if err != nil {
		return false, err
	}
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
