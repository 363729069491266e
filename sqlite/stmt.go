package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// lazyStmt prepares a fixed statement on first use and caches it until
// closed. close is idempotent and never fails: it is called from error
// paths that must not mask the original error.
type lazyStmt struct {
	query   string
	connect connSupplier
	stmt    *sql.Stmt
}

func (s *lazyStmt) get(ctx context.Context) (*sql.Stmt, error) {
	if s.stmt != nil {
		return s.stmt, nil
	}
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	stmt, err := conn.PrepareContext(ctx, s.query)
	if err != nil {
		return nil, err
	}
	s.stmt = stmt
	return stmt, nil
}

func (s *lazyStmt) close() {
	if s.stmt != nil {
		s.stmt.Close()
		s.stmt = nil
	}
}

// stmtCache caches one prepared statement per tag for a statement template
// whose single %s is the tag's table name. The tag has been validated at
// store construction; ids and blobs are always bind parameters.
type stmtCache struct {
	format  string
	connect connSupplier
	stmts   map[string]*sql.Stmt
}

func newStmtCache(format string, connect connSupplier) *stmtCache {
	return &stmtCache{format: format, connect: connect, stmts: make(map[string]*sql.Stmt)}
}

func (c *stmtCache) get(ctx context.Context, tag string) (*sql.Stmt, error) {
	if stmt, ok := c.stmts[tag]; ok {
		return stmt, nil
	}
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	stmt, err := conn.PrepareContext(ctx, fmt.Sprintf(c.format, tag))
	if err != nil {
		return nil, err
	}
	c.stmts[tag] = stmt
	return stmt, nil
}

// close discards every cached statement. Idempotent; close errors are
// ignored because this runs on error paths that must re-raise the original
// failure.
func (c *stmtCache) close() {
	for tag, stmt := range c.stmts {
		stmt.Close()
		delete(c.stmts, tag)
	}
}
