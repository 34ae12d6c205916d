package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys shared by the orchestrator and the CLI.
const (
	SkillName         = attribute.Key("skill.name")
	SkillStatus       = attribute.Key("skill.status")
	WorkflowName      = attribute.Key("workflow.name")
	WorkflowRunID     = attribute.Key("workflow.run_id")
	WorkflowSteps     = attribute.Key("workflow.steps")
	WorkflowSucceeded = attribute.Key("workflow.succeeded")
	WorkflowFailed    = attribute.Key("workflow.failed")
)

// Tracer returns a tracer from the global provider.
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = ServiceName
	}
	return otel.GetTracerProvider().Tracer(name)
}

// WithSpan runs f inside a span named name. A returned error marks the span
// failed.
func WithSpan(ctx context.Context, name string, f func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := Tracer(ServiceName).Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	err := f(ctx)
	End(span, err)
	return err
}

// WithSpanFunc is WithSpan for f that cannot fail.
func WithSpanFunc(ctx context.Context, name string, f func(context.Context), attrs ...attribute.KeyValue) {
	_ = WithSpan(ctx, name, func(ctx context.Context) error {
		f(ctx)
		return nil
	}, attrs...)
}

// End sets the span status from err. It does not end the span.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// SetAttributes adds attributes to the span held by ctx.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
