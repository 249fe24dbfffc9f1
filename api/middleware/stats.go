package middleware

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/balaghali/N26Statistics/stats"
	"gopkg.in/macaron.v1"
)

var knownPaths = map[string]bool{
	"/":             true,
	"/transactions": true,
	"/statistics":   true,
	"/metrics":      true,
}

type requestStats struct {
	sync.Mutex
	responseCounts    map[string]map[int]*stats.Counter32
	latencyHistograms map[string]*stats.LatencyHistogram15s32
	sizeMeters        map[string]*stats.Meter32
}

func (r *requestStats) PathStatusCount(path string, status int) {
	r.Lock()
	p, ok := r.responseCounts[path]
	if !ok {
		p = make(map[int]*stats.Counter32)
		r.responseCounts[path] = p
	}
	c, ok := p[status]
	if !ok {
		// metric api.request.%s.status.%d is the count of the number of responses for each request path, status code combination.
		// eg. `api.request.transactions.status.201` and `api.request.statistics.status.200`
		c = stats.NewCounter32(fmt.Sprintf("api.request.%s.status.%d", path, status))
		p[status] = c
	}
	r.Unlock()
	c.Inc()
}

func (r *requestStats) PathLatency(path string, dur time.Duration) {
	r.Lock()
	p, ok := r.latencyHistograms[path]
	if !ok {
		// metric api.request.%s is the latency of each request by request path.
		p = stats.NewLatencyHistogram15s32(fmt.Sprintf("api.request.%s", path))
		r.latencyHistograms[path] = p
	}
	r.Unlock()
	p.Value(dur)
}

func (r *requestStats) PathSize(path string, size int) {
	r.Lock()
	p, ok := r.sizeMeters[path]
	if !ok {
		// metric api.request.%s.size is the size of each response by request path
		p = stats.NewMeter32(fmt.Sprintf("api.request.%s.size", path))
		r.sizeMeters[path] = p
	}
	r.Unlock()
	p.Value(size)
}

// RequestStats returns a middleware that tracks request metrics.
func RequestStats() macaron.Handler {
	stats := requestStats{
		responseCounts:    make(map[string]map[int]*stats.Counter32),
		latencyHistograms: make(map[string]*stats.LatencyHistogram15s32),
		sizeMeters:        make(map[string]*stats.Meter32),
	}

	return func(ctx *macaron.Context) {
		start := time.Now()
		rw := ctx.Resp.(macaron.ResponseWriter)
		// call next handler. This will return after all handlers
		// have completed and the request has been sent.
		ctx.Next()
		status := rw.Status()
		path := pathSlug(ctx.Req.URL.Path)
		stats.PathStatusCount(path, status)
		stats.PathLatency(path, time.Since(start))
		// only record the request size if the request succeeded with a body.
		if status < 300 && status != http.StatusNoContent {
			stats.PathSize(path, rw.Size())
		}
	}
}

// pathSlug turns a request path into a metric name friendly token.
// paths not served by the api are grouped, so arbitrary requests can't create arbitrary metrics
func pathSlug(p string) string {
	p = path.Clean(p)
	if strings.HasPrefix(p, "/debug/") {
		return "debug"
	}
	if !knownPaths[p] {
		return "unknown"
	}
	slug := strings.TrimPrefix(p, "/")
	if slug == "" {
		slug = "root"
	}
	return strings.Replace(slug, "/", "_", -1)
}
