// Package tracing contains helpers for working with opentracing spans
package tracing

import (
	"context"
	"fmt"

	opentracing "github.com/opentracing/opentracing-go"
	tags "github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"
)

// NewSpan creates a new span as a child of the span in ctx, if any, and updates the context
// callers must call span.Finish() when done
func NewSpan(ctx context.Context, tracer opentracing.Tracer, name string) (context.Context, opentracing.Span) {
	var opts []opentracing.StartSpanOption
	if parent := opentracing.SpanFromContext(ctx); parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}
	span := tracer.StartSpan(name, opts...)
	return opentracing.ContextWithSpan(ctx, span), span
}

// Error marks the span as failed, and logs error
func Error(span opentracing.Span, err error) {
	tags.Error.Set(span, true)
	span.LogFields(log.Error(err))
}

// Errorf marks the span as failed, and logs error
func Errorf(span opentracing.Span, format string, a ...interface{}) {
	tags.Error.Set(span, true)
	span.LogFields(log.Error(fmt.Errorf(format, a...)))
}

// Failure marks the current request as a failure
func Failure(span opentracing.Span) {
	span.SetTag("failure", true)
}
