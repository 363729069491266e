package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gridsight/blobstore"
)

// defaultQueryTimeout bounds pathological scans. Exceeding it surfaces as a
// storage error, not a distinct cancellation signal.
const defaultQueryTimeout = 10 * time.Second

var errReaderClosed = errors.New("reader connection has been closed")

// Reader implements blobstore.Reader on one lazily-opened connection.
//
// Statements are execute-once: reader workloads are batch shaped and the
// requested tag combination varies per call, so nothing is cached across
// calls (unlike Writer).
type Reader struct {
	connect      connSupplier
	conn         *sql.Conn
	ownsConn     bool
	closed       bool
	meta         *metadata
	queryTimeout time.Duration
}

var _ blobstore.Reader = (*Reader)(nil)

// NewReader returns a Reader with its own connection, opened on first use.
func NewReader(factory *ConnectionFactory) *Reader {
	r := &Reader{ownsConn: true, queryTimeout: defaultQueryTimeout}
	r.connect = func(ctx context.Context) (*sql.Conn, error) {
		if r.closed {
			return nil, errReaderClosed
		}
		if r.conn == nil {
			conn, err := factory.Connect(ctx)
			if err != nil {
				return nil, err
			}
			r.conn = conn
		}
		return r.conn, nil
	}
	r.meta = &metadata{connect: r.connect}
	return r
}

// newSharedReader returns a Reader over an injected connection supplier.
// The supplier's owner is responsible for closing the connection.
func newSharedReader(connect connSupplier) *Reader {
	r := &Reader{queryTimeout: defaultQueryTimeout}
	r.connect = func(ctx context.Context) (*sql.Conn, error) {
		if r.closed {
			return nil, errReaderClosed
		}
		return connect(ctx)
	}
	r.meta = &metadata{connect: r.connect}
	return r
}

// IDs calls handler for every id in the store.
func (r *Reader) IDs(ctx context.Context, handler blobstore.IDHandler) error {
	return r.queryIDs(ctx, "select entity_id from "+idIndexTable, handler)
}

// IDsWithTag calls handler for every id that has a blob for tag.
func (r *Reader) IDsWithTag(ctx context.Context, tag string, handler blobstore.IDHandler) error {
	return r.queryIDs(ctx, "select entity_id from "+idIndexTable+
		" join "+tag+" on "+idIndexTable+".id = "+tag+".id", handler)
}

func (r *Reader) queryIDs(ctx context.Context, query string, handler blobstore.IDHandler) error {
	conn, err := r.connect(ctx)
	if err != nil {
		return &blobstore.Error{Msg: "failed to query ids", Err: err}
	}
	qctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := conn.QueryContext(qctx, query)
	if err != nil {
		return &blobstore.Error{Msg: "failed to query ids", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return &blobstore.Error{Msg: "failed to query ids", Err: err}
		}
		handler(id)
	}
	if err := rows.Err(); err != nil {
		return &blobstore.Error{Msg: "failed to query ids", Err: err}
	}
	return nil
}

// ForEach reads the given tags for the given ids. Empty ids or tags is a
// no-op.
func (r *Reader) ForEach(ctx context.Context, ids []string, tags []string, handler blobstore.TagsHandler) error {
	if len(ids) == 0 {
		return nil
	}
	return r.forEach(ctx, ids, tags, nil, handler)
}

// ForAll reads the given tags for every id in the store, narrowed by the
// given predicates.
func (r *Reader) ForAll(ctx context.Context, tags []string, where []blobstore.WhereBlob, handler blobstore.TagsHandler) error {
	return r.forEach(ctx, nil, tags, where, handler)
}

// forEach drives the query builder, chunking ids at MaxParamIDs. The loop
// body always runs at least once so that the unbounded ForAll case (no ids)
// issues its single query.
func (r *Reader) forEach(ctx context.Context, ids, tags []string, wheres []blobstore.WhereBlob, handler blobstore.TagsHandler) error {
	if len(tags) == 0 {
		return nil
	}

	done := 0
	for {
		limit := len(ids) - done
		if limit > MaxParamIDs {
			limit = MaxParamIDs
		}

		query := buildQuery(tags, wheres, limit)
		args := make([]any, 0, limit+len(wheres))
		for _, id := range ids[done : done+limit] {
			args = append(args, id)
		}
		for _, w := range wheres {
			args = append(args, w.Blob())
		}

		if err := r.queryPage(ctx, query, args, tags, handler); err != nil {
			return &blobstore.Error{Msg: "error querying database", Err: err}
		}

		done += limit
		if done >= len(ids) {
			return nil
		}
	}
}

// queryPage executes one chunk's statement and streams its rows to the
// handler. The blobs map is reused across rows; the scanned blob slices are
// fresh per row.
func (r *Reader) queryPage(ctx context.Context, query string, args []any, tags []string, handler blobstore.TagsHandler) error {
	conn, err := r.connect(ctx)
	if err != nil {
		return err
	}
	qctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := conn.QueryContext(qctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	var id string
	data := make([][]byte, len(tags))
	dest := make([]any, 1+len(tags))
	dest[0] = &id
	for i := range data {
		dest[i+1] = &data[i]
	}

	blobs := make(map[string][]byte, len(tags))
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		for i, tag := range tags {
			blobs[tag] = data[i]
		}
		handler(id, blobs)
	}
	return rows.Err()
}

// GetMetadata returns the metadata value for key, or false if absent.
func (r *Reader) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := r.meta.get(ctx, key)
	if err != nil {
		return "", false, &blobstore.Error{Msg: "failed to read metadata for " + key, ID: key, Err: err}
	}
	return value, ok, nil
}

// Close releases the reader's connection if it owns one. Safe to call
// multiple times and before the connection was ever opened.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.conn != nil && r.ownsConn {
		conn := r.conn
		r.conn = nil
		if err := conn.Close(); err != nil {
			return &blobstore.Error{Msg: "failed to close reader connection", Err: err}
		}
	}
	return nil
}
