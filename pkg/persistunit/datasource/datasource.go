// Package datasource opens database/sql connection pools from
// configuration descriptors.
package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/randalmurphal/persistunit/pkg/persistunit/config"
)

// DefaultPingTimeout bounds the startup connectivity check when the
// descriptor does not set one.
const DefaultPingTimeout = 5 * time.Second

// ErrUnsupportedDriver indicates a driver other than sqlite or postgres.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Build opens a pool for cfg, applies its pool settings, and verifies
// connectivity. If reg is non-nil, pool statistics are exported under
// the db_name label name.
//
// On any failure the pool is closed before returning.
func Build(ctx context.Context, name string, cfg config.Database, reg prometheus.Registerer) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", name, err)
	}

	configurePool(db, cfg)

	if err := initialize(ctx, db, cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database %s: %w", name, err)
	}

	if reg != nil {
		if err := reg.Register(StatsCollector(db, name)); err != nil {
			db.Close()
			return nil, fmt.Errorf("register pool metrics for %s: %w", name, err)
		}
	}

	return db, nil
}

// StatsCollector returns the pool statistics collector for db. Collectors
// for the same name share an identity, so one built later can be passed to
// prometheus.Registerer.Unregister.
func StatsCollector(db *sql.DB, name string) prometheus.Collector {
	return collectors.NewDBStatsCollector(db, name)
}

func configurePool(db *sql.DB, cfg config.Database) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Std())
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime.Std())
	}
}

func initialize(ctx context.Context, db *sql.DB, cfg config.Database) error {
	timeout := cfg.PingTimeout.Std()
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := Check(ctx, db, cfg.ValidationQuery); err != nil {
		return err
	}

	// WAL mode for better concurrent read performance on file databases
	if cfg.Driver == "sqlite" && !isMemory(cfg.URL) {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	return nil
}

// Check pings db and, if query is non-empty, runs it and discards the
// first row.
func Check(ctx context.Context, db *sql.DB, query string) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if query == "" {
		return nil
	}
	var discard any
	if err := db.QueryRowContext(ctx, query).Scan(&discard); err != nil {
		return fmt.Errorf("validation query: %w", err)
	}
	return nil
}

// DSN builds the driver data source name for cfg. Properties are added as
// query parameters, sorted by key. For postgres, User and Password are set
// as URL credentials.
func DSN(cfg config.Database) (string, error) {
	switch cfg.Driver {
	case "sqlite":
		return withQuery(cfg.URL, cfg.Properties), nil
	case "postgres":
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return "", fmt.Errorf("parse postgres url: %w", err)
		}
		if cfg.User != "" {
			if cfg.Password != "" {
				u.User = url.UserPassword(cfg.User, cfg.Password)
			} else {
				u.User = url.User(cfg.User)
			}
		}
		q := u.Query()
		for k, v := range cfg.Properties {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func withQuery(base string, props map[string]string) string {
	if len(props) == 0 {
		return base
	}
	q := make(url.Values, len(props))
	for k, v := range props {
		q.Set(k, v)
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
