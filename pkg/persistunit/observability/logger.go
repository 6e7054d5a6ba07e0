// Package observability provides logging, metrics, and tracing for
// persistunit: structured logging via slog, metrics and spans via
// OpenTelemetry.
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds unit context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "orders-db")
//	enriched.Info("building factory") // includes unit
func EnrichLogger(logger *slog.Logger, unit string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("unit", unit))
}

// LogUnitResolving logs a slow-path resolution of a persistence unit.
func LogUnitResolving(logger *slog.Logger, unit string) {
	if logger == nil {
		return
	}
	logger.Debug("resolving persistence unit",
		slog.String("unit", unit),
	)
}

// LogUnitBuilt logs a successful factory construction.
func LogUnitBuilt(logger *slog.Logger, unit string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("persistence unit factory built",
		slog.String("unit", unit),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogUnitBuildFailed logs a failed factory construction.
func LogUnitBuildFailed(logger *slog.Logger, unit string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("persistence unit factory build failed",
		slog.String("unit", unit),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSessionError logs a failure to open a session from a built factory.
func LogSessionError(logger *slog.Logger, unit string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("session creation failed",
		slog.String("unit", unit),
		slog.String("error", err.Error()),
	)
}

// LogShutdown logs registry shutdown.
func LogShutdown(logger *slog.Logger, units int) {
	if logger == nil {
		return
	}
	logger.Debug("cleanup called",
		slog.Int("units", units),
	)
}

// LogCloseError logs a factory that failed to close during shutdown (non-fatal).
func LogCloseError(logger *slog.Logger, unit string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("persistence unit factory close failed",
		slog.String("unit", unit),
		slog.String("error", err.Error()),
	)
}

// LogDataSourceBound logs a datasource published in the naming directory.
func LogDataSourceBound(logger *slog.Logger, jndiName, driver string) {
	if logger == nil {
		return
	}
	logger.Info("datasource bound",
		slog.String("jndi_name", jndiName),
		slog.String("driver", driver),
	)
}

// LogDataSourceError logs a datasource that could not be built or bound.
func LogDataSourceError(logger *slog.Logger, jndiName string, err error) {
	if logger == nil {
		return
	}
	logger.Error("datasource setup failed",
		slog.String("jndi_name", jndiName),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
