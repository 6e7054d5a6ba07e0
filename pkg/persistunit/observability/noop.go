package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordConstruction does nothing.
func (NoopMetrics) RecordConstruction(_ context.Context, _ string, _ time.Duration, _ error) {}

// RecordSession does nothing.
func (NoopMetrics) RecordSession(_ context.Context, _ string, _ error) {}

// RecordShutdown does nothing.
func (NoopMetrics) RecordShutdown(_ context.Context, _ int) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartBuildSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartBuildSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartSessionSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartSessionSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}
