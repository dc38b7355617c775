package trace

import "context"

type tracerKey struct{}
type spanKey struct{}

// WithTracer returns a context carrying t. A nil tracer degrades to
// Nop so downstream FromContext never hands out nil.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext looks up the tracer installed by WithTracer, falling
// back to Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// SpanContext carries the identifiers a child span needs to point at
// its parent across an API boundary.
type SpanContext struct {
	SpanID uint64
	GID    uint64
}

// WithSpanContext records sc as the active span for child Begins.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	if ctx == nil {
		return nil
	}
	return context.WithValue(ctx, spanKey{}, sc)
}

// CurrentSpan reports the active span context, zero when none is set.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	if sc, ok := ctx.Value(spanKey{}).(SpanContext); ok {
		return sc
	}
	return SpanContext{}
}
