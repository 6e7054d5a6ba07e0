package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the persistunit tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("persistunit")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartBuildSpan starts a span around a factory construction.
	StartBuildSpan(ctx context.Context, unit string) (context.Context, trace.Span)

	// StartSessionSpan starts a span around opening a derived session.
	StartSessionSpan(ctx context.Context, unit string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartBuildSpan starts a span for a factory construction.
func (m *otelSpanManager) StartBuildSpan(ctx context.Context, unit string) (context.Context, trace.Span) {
	return StartBuildSpan(ctx, unit)
}

// StartSessionSpan starts a span for a session open.
func (m *otelSpanManager) StartSessionSpan(ctx context.Context, unit string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "persistunit.session",
		trace.WithAttributes(
			attribute.String("unit.name", unit),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// StartBuildSpan starts a span for a factory construction.
// Uses the global OTel tracer.
func StartBuildSpan(ctx context.Context, unit string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "persistunit.build",
		trace.WithAttributes(
			attribute.String("unit.name", unit),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
