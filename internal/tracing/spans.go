package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrHandleID     = "handle.id"
	AttrAddress      = "handle.address"
	AttrState        = "handle.state"
	AttrGeneration   = "handle.generation"
	AttrWorkerCount  = "workers.count"
	AttrErrorMessage = "error.message"
)

// Span names.
const (
	SpanOpen     = "handle.open"
	SpanClose    = "handle.close"
	SpanDestroy  = "handle.destroy"
	SpanGetStats = "handle.get_stats"
)

// Span event names.
const (
	EventScheduled = "tasks.scheduled"
	EventEmitted   = "event.emitted"
	EventDiscarded = "task.discarded"
)

// Start begins a span with the handle attributes set.
func Start(ctx context.Context, tracer trace.Tracer, name, handleID, address string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String(AttrHandleID, handleID),
		attribute.String(AttrAddress, address),
	))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
