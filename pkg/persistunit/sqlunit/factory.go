package sqlunit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/persistunit/pkg/persistunit"
)

// Factory produces sessions for one persistence unit.
type Factory struct {
	unit           string
	db             *sql.DB
	acquireTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// Compile-time interface check.
var _ persistunit.Factory = (*Factory)(nil)

// Unit returns the unit name.
func (f *Factory) Unit() string {
	return f.unit
}

// DB returns the shared pool backing the unit.
func (f *Factory) DB() *sql.DB {
	return f.db
}

// NewSession implements persistunit.Factory. It reserves one connection
// from the pool for the lifetime of the session.
func (f *Factory) NewSession(ctx context.Context) (persistunit.Session, error) {
	return f.Open(ctx)
}

// Open is NewSession with the concrete session type.
func (f *Factory) Open(ctx context.Context) (*Session, error) {
	f.mu.RLock()
	closed := f.closed
	f.mu.RUnlock()
	if closed {
		return nil, ErrFactoryClosed
	}

	actx, cancel := acquireContext(ctx, f.acquireTimeout)
	defer cancel()

	conn, err := f.db.Conn(actx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for unit %q: %w", f.unit, err)
	}

	return &Session{
		id:   uuid.NewString(),
		unit: f.unit,
		conn: conn,
	}, nil
}

// Close implements persistunit.Factory. Closing twice is a no-op.
// Open sessions stay usable until they are closed.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (f *Factory) Closed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}
