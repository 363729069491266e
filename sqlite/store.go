package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gridsight/blobstore"
)

var errStoreClosed = errors.New("store has been closed")

// Store couples a Reader and Writer over one shared connection with
// autocommit disabled, so reads observe the writer's uncommitted changes.
// The shared connection also means a Store must be owned by a single
// logical caller; there is no internal locking.
type Store struct {
	factory *ConnectionFactory
	conn    *sql.Conn
	closed  bool
	reader  *Reader
	writer  *Writer
}

var _ blobstore.Store = (*Store)(nil)

// Open validates the tag set and returns a store for the database file at
// path. The file itself is opened and bootstrapped lazily, on the first
// read or write.
func Open(path string, tags []string) (*Store, error) {
	factory, err := NewConnectionFactory(path, tags)
	if err != nil {
		return nil, err
	}

	s := &Store{factory: factory}
	connect := func(ctx context.Context) (*sql.Conn, error) {
		if s.closed {
			return nil, errStoreClosed
		}
		if s.conn == nil {
			conn, err := factory.Connect(ctx)
			if err != nil {
				return nil, err
			}
			if _, err := conn.ExecContext(ctx, "BEGIN"); err != nil {
				conn.Close()
				return nil, err
			}
			s.conn = conn
		}
		return s.conn, nil
	}
	s.reader = newSharedReader(connect)
	s.writer = newSharedWriter(connect, tags)
	return s, nil
}

// Reader returns the store's reader.
func (s *Store) Reader() blobstore.Reader { return s.reader }

// Writer returns the store's writer.
func (s *Store) Writer() blobstore.Writer { return s.writer }

// Close releases the reader, the writer, the shared connection and the
// connection pool. Uncommitted writes are discarded. Safe to call multiple
// times.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.writer.Close()
	if rerr := s.reader.Close(); err == nil {
		err = rerr
	}
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
		s.conn = nil
	}
	if ferr := s.factory.Close(); err == nil {
		err = ferr
	}
	return err
}
