package middleware

import (
	"net/http"

	"github.com/balaghali/N26Statistics/tracing"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	jaeger "github.com/uber/jaeger-client-go"
	"gopkg.in/macaron.v1"
)

// failureRecorder keeps the body of responses with an error status,
// so it can be logged on the request span.
type failureRecorder struct {
	macaron.ResponseWriter
	failure []byte
}

func (r *failureRecorder) Write(b []byte) (int, error) {
	if r.Status() >= 400 {
		r.failure = append(r.failure, b...)
	}
	return r.ResponseWriter.Write(b)
}

// Tracer starts a server span for every request, continuing a trace propagated by the client.
// Transaction submissions are tagged with their outcome.
func Tracer(tracer opentracing.Tracer) macaron.Handler {
	return func(c *macaron.Context) {
		parent, _ := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(c.Req.Header))
		span := tracer.StartSpan("HTTP "+c.Req.Method+" "+pathSlug(c.Req.URL.Path), ext.RPCServerOption(parent))
		defer span.Finish()

		ext.HTTPMethod.Set(span, c.Req.Method)
		ext.HTTPUrl.Set(span, c.Req.URL.String())
		ext.Component.Set(span, "txstats/api")

		c.Req.Request = c.Req.WithContext(opentracing.ContextWithSpan(c.Req.Context(), span))
		c.Map(c.Req.Request)
		rec := &failureRecorder{ResponseWriter: c.Resp}
		c.Resp = rec
		c.MapTo(c.Resp, (*http.ResponseWriter)(nil))

		// noop and mock tracers have no trace id to hand out
		if sc, ok := span.Context().(jaeger.SpanContext); ok {
			rec.Header().Set("Trace-Id", sc.TraceID().String())
		}

		c.Next()

		status := rec.Status()
		ext.HTTPStatusCode.Set(span, uint16(status))
		switch {
		case status == http.StatusCreated:
			span.SetTag("transaction", "accepted")
		case status == http.StatusNoContent:
			span.SetTag("transaction", "ignored")
		case status >= http.StatusInternalServerError:
			tracing.Errorf(span, "%s", rec.failure)
			tracing.Failure(span)
		case status >= http.StatusBadRequest:
			tracing.Errorf(span, "%s", rec.failure)
		}
	}
}
