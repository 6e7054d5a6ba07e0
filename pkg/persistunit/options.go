package persistunit

import (
	"log/slog"

	"github.com/randalmurphal/persistunit/pkg/persistunit/observability"
)

// registryConfig holds the ambient collaborators of a Registry.
type registryConfig struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// defaultRegistryConfig returns the default configuration:
// slog.Default() and no-op metrics and tracing.
func defaultRegistryConfig() registryConfig {
	return registryConfig{
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a Registry.
type Option func(*registryConfig)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
//
// Example:
//
//	reg := persistunit.NewRegistry(builder,
//	    persistunit.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *registryConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager sets the span manager used around builds and session opens.
func WithSpanManager(s observability.SpanManager) Option {
	return func(c *registryConfig) {
		if s != nil {
			c.spans = s
		}
	}
}
