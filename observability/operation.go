package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Operation status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Operation tracks one traced and metered attachment operation.
type Operation struct {
	Name      string
	StartTime time.Time

	ctx     context.Context
	span    trace.Span
	metrics *Metrics
}

// StartOperation starts a span named name and returns the context carrying
// it. metrics may be nil.
func StartOperation(ctx context.Context, name string, metrics *Metrics, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &Operation{
		Name:      name,
		StartTime: time.Now(),
		ctx:       ctx,
		span:      span,
		metrics:   metrics,
	}
}

// Span returns the operation's span.
func (op *Operation) Span() trace.Span { return op.span }

// SetAttributes adds attributes to the operation's span.
func (op *Operation) SetAttributes(attrs ...attribute.KeyValue) {
	op.span.SetAttributes(attrs...)
}

// End records err, ends the span and records the operation metrics.
func (op *Operation) End(err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
		SetSpanError(op.span, err)
	}
	op.span.SetAttributes(attribute.String(AttrStatus, status))
	op.span.End()
	op.metrics.RecordOperation(op.ctx, op.Name, status, op.Duration())
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
