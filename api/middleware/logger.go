package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"
	jaeger "github.com/uber/jaeger-client-go"
	macaron "gopkg.in/macaron.v1"
)

var (
	LogHeaders = false
)

type LoggingResponseWriter struct {
	macaron.ResponseWriter
	errBody []byte // the body in case it is an error
}

func (rw *LoggingResponseWriter) Write(b []byte) (int, error) {
	if rw.ResponseWriter.Status() >= 400 {
		rw.errBody = make([]byte, len(b))
		copy(rw.errBody, b)
	}
	return rw.ResponseWriter.Write(b)
}

func Logger() macaron.Handler {
	return func(ctx *Context) {
		start := time.Now()
		ctx.Resp = &LoggingResponseWriter{
			ResponseWriter: ctx.Resp,
		}
		rw := ctx.Resp.(*LoggingResponseWriter)
		ctx.MapTo(ctx.Resp, (*http.ResponseWriter)(nil))
		ctx.Next()

		// only log requests that resulted in errors
		if rw.Status() >= 200 && rw.Status() < 300 {
			return
		}

		fields := log.Fields{
			"status": rw.Status(),
			"took":   time.Since(start).String(),
		}
		if traceID, ok := extractTraceID(ctx.Req.Context()); ok {
			fields["traceID"] = traceID
		}
		if referer := ctx.Req.Referer(); referer != "" {
			fields["referer"] = referer
		}
		if sourceIP := ctx.RemoteAddr(); sourceIP != "" {
			fields["sourceIP"] = sourceIP
		}
		if len(rw.errBody) > 0 {
			fields["error"] = url.PathEscape(string(rw.errBody))
		}
		if LogHeaders {
			headers, err := extractHeaders(ctx.Req.Request)
			if err != nil {
				log.Errorf("Could not extract request headers: %v", err)
			}
			if headers != "" {
				fields["headers"] = headers
			}
		}

		path := ctx.Req.URL.Path
		if ctx.Req.URL.RawQuery != "" {
			path += "?" + ctx.Req.URL.RawQuery
		}
		entry := log.WithFields(fields)
		if rw.Status() >= 500 {
			entry.Errorf("%s %s", ctx.Req.Method, path)
		} else {
			entry.Infof("%s %s", ctx.Req.Method, path)
		}
	}
}

func extractHeaders(req *http.Request) (string, error) {
	var b bytes.Buffer

	// Exclude some headers for security, or just that we don't need them when debugging
	err := req.Header.WriteSubset(&b, map[string]bool{
		"Cookie":        true,
		"X-Csrf-Token":  true,
		"Authorization": true,
	})
	if err != nil {
		return "", err
	}
	return url.PathEscape(string(b.Bytes())), nil
}

func extractTraceID(ctx context.Context) (string, bool) {
	sp := opentracing.SpanFromContext(ctx)
	if sp == nil {
		return "", false
	}
	sctx, ok := sp.Context().(jaeger.SpanContext)
	if !ok {
		return "", false
	}

	return sctx.TraceID().String(), true
}
