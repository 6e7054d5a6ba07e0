package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records persistunit metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordConstruction records a factory build attempt with its duration and error status.
	RecordConstruction(ctx context.Context, unit string, duration time.Duration, err error)

	// RecordSession records a derived session being opened.
	RecordSession(ctx context.Context, unit string, err error)

	// RecordShutdown records a registry shutdown and the number of factories it released.
	RecordShutdown(ctx context.Context, units int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	constructions       metric.Int64Counter
	constructionLatency metric.Float64Histogram
	constructionErrors  metric.Int64Counter
	sessions            metric.Int64Counter
	sessionErrors       metric.Int64Counter
	released            metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("persistunit")

	constructions, err := meter.Int64Counter("persistunit.factory.constructions",
		metric.WithDescription("Number of factory build attempts"),
	)
	if err != nil {
		return nil, err
	}

	constructionLatency, err := meter.Float64Histogram("persistunit.factory.latency_ms",
		metric.WithDescription("Factory build latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	constructionErrors, err := meter.Int64Counter("persistunit.factory.errors",
		metric.WithDescription("Number of failed factory builds"),
	)
	if err != nil {
		return nil, err
	}

	sessions, err := meter.Int64Counter("persistunit.session.created",
		metric.WithDescription("Number of sessions opened"),
	)
	if err != nil {
		return nil, err
	}

	sessionErrors, err := meter.Int64Counter("persistunit.session.errors",
		metric.WithDescription("Number of failed session opens"),
	)
	if err != nil {
		return nil, err
	}

	released, err := meter.Int64Counter("persistunit.factory.released",
		metric.WithDescription("Number of factories released at shutdown"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		constructions:       constructions,
		constructionLatency: constructionLatency,
		constructionErrors:  constructionErrors,
		sessions:            sessions,
		sessionErrors:       sessionErrors,
		released:            released,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordConstruction records a factory build attempt.
func (m *otelMetrics) RecordConstruction(ctx context.Context, unit string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("unit", unit),
		attribute.Bool("success", err == nil),
	)

	m.constructions.Add(ctx, 1, attrs)
	m.constructionLatency.Record(ctx, float64(duration.Milliseconds()), attrs)

	if err != nil {
		m.constructionErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("unit", unit)))
	}
}

// RecordSession records a session open.
func (m *otelMetrics) RecordSession(ctx context.Context, unit string, err error) {
	attrs := metric.WithAttributes(attribute.String("unit", unit))
	if err != nil {
		m.sessionErrors.Add(ctx, 1, attrs)
		return
	}
	m.sessions.Add(ctx, 1, attrs)
}

// RecordShutdown records the factories released by a shutdown.
func (m *otelMetrics) RecordShutdown(ctx context.Context, units int) {
	m.released.Add(ctx, int64(units))
}
