// Package bundle binds configured datasources into a naming directory at
// server startup and exposes their health on an admin router.
package bundle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/randalmurphal/persistunit/pkg/persistunit/config"
	"github.com/randalmurphal/persistunit/pkg/persistunit/datasource"
	"github.com/randalmurphal/persistunit/pkg/persistunit/naming"
	"github.com/randalmurphal/persistunit/pkg/persistunit/observability"
)

var (
	// ErrNoDirectory indicates an Environment without a naming directory.
	ErrNoDirectory = errors.New("environment has no naming directory")

	// ErrAlreadyRunning indicates Run on a bundle that has not been stopped.
	ErrAlreadyRunning = errors.New("bundle already running")
)

// Environment is what the hosting server provides to the bundle.
type Environment struct {
	// Directory receives one binding per datasource. Required.
	Directory *naming.Directory

	// Metrics receives pool statistics collectors. Optional.
	Metrics prometheus.Registerer

	// Admin gets the /persistence routes mounted. Optional.
	Admin chi.Router

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

type boundSource struct {
	name            string
	driver          string
	validationQuery string
	db              *sql.DB
}

// Bundle owns the connection pools it binds. They stay open until Stop.
type Bundle struct {
	mu      sync.RWMutex
	env     Environment
	sources []boundSource
	units   []config.Unit
	running bool
	mounted bool
}

// New creates an idle bundle.
func New() *Bundle {
	return &Bundle{}
}

// Run validates cfg, opens every datasource in order and binds it under its
// directory name. If any datasource fails, the pools opened so far are
// closed and unbound before the error is returned.
func (b *Bundle) Run(ctx context.Context, cfg config.Config, env Environment) error {
	if env.Directory == nil {
		return ErrNoDirectory
	}
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrAlreadyRunning
	}

	b.env = env
	for _, ds := range cfg.DataSources {
		if err := b.bind(ctx, ds); err != nil {
			observability.LogDataSourceError(env.Logger, ds.JNDIName, err)
			_ = b.closeAll()
			return err
		}
		observability.LogDataSourceBound(env.Logger, ds.JNDIName, ds.Database.Driver)
	}

	b.units = append([]config.Unit(nil), cfg.Units...)
	b.running = true

	if env.Admin != nil && !b.mounted {
		b.mounted = true
		env.Admin.Route("/persistence", func(r chi.Router) {
			r.Get("/health", b.handleHealth)
			r.Get("/units", b.handleUnits)
		})
	}
	return nil
}

// bind opens one datasource and binds it. Must hold b.mu.
func (b *Bundle) bind(ctx context.Context, ds config.DataSource) error {
	db, err := datasource.Build(ctx, ds.JNDIName, ds.Database, b.env.Metrics)
	if err != nil {
		return err
	}
	if err := b.env.Directory.Bind(ds.JNDIName, db); err != nil {
		unregisterStats(b.env.Metrics, db, ds.JNDIName)
		db.Close()
		return fmt.Errorf("bind datasource %s: %w", ds.JNDIName, err)
	}
	b.sources = append(b.sources, boundSource{
		name:            ds.JNDIName,
		driver:          ds.Database.Driver,
		validationQuery: ds.Database.ValidationQuery,
		db:              db,
	})
	return nil
}

// Stop unbinds and closes every datasource in reverse order. Stopping an
// idle bundle is a no-op.
func (b *Bundle) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return nil
	}
	b.running = false
	b.units = nil
	return b.closeAll()
}

// closeAll must hold b.mu.
func (b *Bundle) closeAll() error {
	var errs []error
	for i := len(b.sources) - 1; i >= 0; i-- {
		src := b.sources[i]
		b.env.Directory.Unbind(src.name)
		unregisterStats(b.env.Metrics, src.db, src.name)
		if err := src.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close datasource %s: %w", src.name, err))
		}
	}
	b.sources = nil
	return errors.Join(errs...)
}

// DataSources returns the bound directory names in binding order.
func (b *Bundle) DataSources() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, len(b.sources))
	for i, src := range b.sources {
		names[i] = src.name
	}
	return names
}

// Running reports whether Run succeeded and Stop has not been called.
func (b *Bundle) Running() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

func unregisterStats(reg prometheus.Registerer, db *sql.DB, name string) {
	if reg == nil {
		return
	}
	reg.Unregister(datasource.StatsCollector(db, name))
}
