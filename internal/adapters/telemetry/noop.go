package telemetry

import (
	"context"

	"go.trai.ch/sift/internal/core/ports"
)

var _ ports.Tracer = (*NoopTracer)(nil)

// NoopTracer is a Tracer that records nothing. Useful for tests and for
// embedding the pipeline without telemetry.
type NoopTracer struct{}

// NewNoopTracer creates a new NoopTracer.
func NewNoopTracer() *NoopTracer {
	return &NoopTracer{}
}

// Start returns the context unchanged and a span that does nothing.
func (t *NoopTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End() {}
func (noopSpan) RecordError(error) {}
func (noopSpan) SetAttribute(string, any) {}
