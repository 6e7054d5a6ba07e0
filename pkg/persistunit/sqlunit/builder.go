package sqlunit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/persistunit/pkg/persistunit"
	"github.com/randalmurphal/persistunit/pkg/persistunit/config"
	"github.com/randalmurphal/persistunit/pkg/persistunit/naming"
)

// Sentinel errors for unit construction and use.
var (
	// ErrUnknownUnit indicates a unit name with no definition.
	ErrUnknownUnit = errors.New("unknown persistence unit")

	// ErrFactoryClosed indicates a session was requested from a closed factory.
	ErrFactoryClosed = errors.New("persistence unit factory closed")

	// ErrSessionClosed indicates use of a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// Option configures a builder.
type Option func(*builderConfig)

type builderConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for schema setup. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *builderConfig) {
		c.logger = logger
	}
}

// NewBuilder returns a persistunit.Builder for the given unit definitions.
// Datasources are looked up in dir when a unit is built, not when the
// builder is created, so the bundle may bind them later.
func NewBuilder(units []config.Unit, dir *naming.Directory, opts ...Option) persistunit.Builder {
	cfg := builderConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	defs := make(map[string]config.Unit, len(units))
	for _, u := range units {
		defs[u.Name] = u
	}

	return func(ctx context.Context, name string) (persistunit.Factory, error) {
		def, ok := defs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
		}
		return build(ctx, def, dir, cfg.logger)
	}
}

func build(ctx context.Context, def config.Unit, dir *naming.Directory, logger *slog.Logger) (*Factory, error) {
	db, err := naming.LookupAs[*sql.DB](dir, def.DataSource)
	if err != nil {
		return nil, fmt.Errorf("datasource for unit %q: %w", def.Name, err)
	}

	props := def.Props()
	if props.Bool("schema.enabled", true) {
		if err := applySchema(ctx, db, def.Schema); err != nil {
			return nil, fmt.Errorf("schema for unit %q: %w", def.Name, err)
		}
		if logger != nil && len(def.Schema) > 0 {
			logger.Debug("persistence unit schema applied",
				slog.String("unit", def.Name),
				slog.Int("statements", len(def.Schema)))
		}
	}

	return &Factory{
		unit:           def.Name,
		db:             db,
		acquireTimeout: props.Duration("session.acquireTimeout", 0),
	}, nil
}

// applySchema runs statements in order inside one transaction.
func applySchema(ctx context.Context, db *sql.DB, statements []string) error {
	if len(statements) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// acquireContext bounds connection acquisition by timeout when it is positive.
func acquireContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
