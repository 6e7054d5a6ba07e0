package sqlunit

import (
	"context"
	"database/sql"
	"sync"

	"github.com/randalmurphal/persistunit/pkg/persistunit"
)

// Session is one unit of work against a persistence unit. It owns a single
// pooled connection until Close.
type Session struct {
	id   string
	unit string
	conn *sql.Conn

	mu     sync.Mutex
	closed bool
}

// Compile-time interface check.
var _ persistunit.Session = (*Session)(nil)

// ID implements persistunit.Session.
func (s *Session) ID() string {
	return s.id
}

// Unit returns the unit the session belongs to.
func (s *Session) Unit() string {
	return s.unit
}

// ExecContext runs a statement on the session's connection.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	return s.conn.ExecContext(ctx, query, args...)
}

// QueryContext runs a query on the session's connection.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	return s.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the session's connection.
// On a closed session the returned row reports sql.ErrConnDone from Scan.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, query, args...)
}

// Close returns the connection to the pool. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
