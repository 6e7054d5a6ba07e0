package persistunit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/randalmurphal/persistunit/pkg/persistunit/observability"
)

// Factory is the expensive, reusable handle for one persistence unit.
// It produces fresh sessions on demand. Implementations must be safe for
// concurrent use.
type Factory interface {
	// NewSession opens one independent session backed by this factory.
	NewSession(ctx context.Context) (Session, error)

	// Close releases the resources held by the factory.
	Close() error
}

// Session is a lightweight, per-use resource derived from a Factory.
type Session interface {
	// ID identifies the session for logging.
	ID() string

	// Close releases the session.
	Close() error
}

// Builder constructs the Factory for a named unit. It may fail for
// unknown or misconfigured names.
type Builder func(ctx context.Context, unit string) (Factory, error)

// ReleaseFunc disposes of a derived session. Calls after the first are no-ops.
type ReleaseFunc func() error

// Registry lazily builds and caches one Factory per unit name.
//
// The builder runs at most once per unit for as long as it succeeds:
// concurrent first callers for a unit block on the registry lock and all
// observe the same Factory. A failed build leaves no entry behind.
//
// Shutdown closes every built factory exactly once and is terminal.
type Registry struct {
	builder Builder
	cfg     registryConfig

	mu      sync.RWMutex
	entries map[string]Factory
	closed  bool
}

// NewRegistry creates an empty registry that builds factories with builder.
func NewRegistry(builder Builder, opts ...Option) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{
		builder: builder,
		cfg:     cfg,
		entries: make(map[string]Factory),
	}
}

// Resolve returns the Factory for unit, building it on first use.
//
// Build failures are returned as *ConstructionError. After Shutdown,
// Resolve returns ErrRegistryClosed.
func (r *Registry) Resolve(ctx context.Context, unit string) (Factory, error) {
	if unit == "" {
		return nil, ErrEmptyUnitName
	}

	// Fast path: already built
	r.mu.RLock()
	f, ok := r.entries[unit]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrRegistryClosed
	}
	if ok {
		return f, nil
	}

	// Slow path: build under the write lock
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	// Another caller may have built it while we waited for the lock
	if f, ok := r.entries[unit]; ok {
		return f, nil
	}

	f, err := r.build(ctx, unit)
	if err != nil {
		return nil, err
	}
	r.entries[unit] = f
	return f, nil
}

// build runs the builder with logging, metrics, and tracing. Caller holds r.mu.
func (r *Registry) build(ctx context.Context, unit string) (Factory, error) {
	observability.LogUnitResolving(r.cfg.logger, unit)

	ctx, span := r.cfg.spans.StartBuildSpan(ctx, unit)
	start := time.Now()

	f, err := r.builder(ctx, unit)
	if err == nil && f == nil {
		err = ErrNilFactory
	}

	elapsed := time.Since(start)
	r.cfg.metrics.RecordConstruction(ctx, unit, elapsed, err)
	r.cfg.spans.EndSpanWithError(span, err)

	durationMs := float64(elapsed.Milliseconds())
	if err != nil {
		observability.LogUnitBuildFailed(r.cfg.logger, unit, err, durationMs)
		return nil, &ConstructionError{Unit: unit, Err: err}
	}
	observability.LogUnitBuilt(r.cfg.logger, unit, durationMs)
	return f, nil
}

// CreateDerivedResource opens a fresh session from the unit's Factory.
//
// Sessions are never cached or tracked by the registry. The returned
// ReleaseFunc closes the session; it is safe to call more than once and
// only the first call has any effect.
func (r *Registry) CreateDerivedResource(ctx context.Context, unit string) (Session, ReleaseFunc, error) {
	f, err := r.Resolve(ctx, unit)
	if err != nil {
		return nil, nil, err
	}

	ctx, span := r.cfg.spans.StartSessionSpan(ctx, unit)
	s, err := f.NewSession(ctx)
	if err == nil && s == nil {
		err = ErrNilSession
	}
	r.cfg.metrics.RecordSession(ctx, unit, err)
	r.cfg.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogSessionError(r.cfg.logger, unit, err)
		return nil, nil, err
	}

	return s, releaseOnce(s), nil
}

// releaseOnce returns a ReleaseFunc that closes s at most once.
func releaseOnce(s Session) ReleaseFunc {
	var (
		once sync.Once
		err  error
	)
	return func() error {
		once.Do(func() {
			err = s.Close()
		})
		return err
	}
}

// Shutdown closes every built factory and empties the registry.
//
// Close errors are joined and returned, but every factory is still closed
// and the registry is cleared. Subsequent calls are no-ops that return nil,
// and subsequent Resolve calls return ErrRegistryClosed.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	observability.LogShutdown(r.cfg.logger, len(r.entries))

	var errs []error
	for unit, f := range r.entries {
		if err := f.Close(); err != nil {
			observability.LogCloseError(r.cfg.logger, unit, err)
			errs = append(errs, fmt.Errorf("close persistence unit %q: %w", unit, err))
		}
	}
	r.cfg.metrics.RecordShutdown(context.Background(), len(r.entries))
	clear(r.entries)

	return errors.Join(errs...)
}

// Units returns the names of the units built so far, sorted.
func (r *Registry) Units() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	units := make([]string, 0, len(r.entries))
	for unit := range r.entries {
		units = append(units, unit)
	}
	sort.Strings(units)
	return units
}

// Len returns the number of built factories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Closed reports whether Shutdown has been called.
func (r *Registry) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Logger returns the registry's logger, which may be nil.
func (r *Registry) Logger() *slog.Logger {
	return r.cfg.logger
}
