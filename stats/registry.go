package stats

import (
	"fmt"
	"reflect"
	"sync"
)

var errFmtMetricExists = "fatal: metric %q already exists as type %T"

var registry = NewRegistry()

// Registry tracks metrics and reporters
type Registry struct {
	sync.Mutex
	// here we use just the metric name as key. it does not include any prefix
	metrics map[string]GraphiteMetric
}

func NewRegistry() *Registry {
	return &Registry{
		metrics: make(map[string]GraphiteMetric),
	}
}

// getOrAdd returns the metric already registered under name, or registers the given one.
// it panics if name is taken by a metric of another type.
func (r *Registry) getOrAdd(name string, metric GraphiteMetric) GraphiteMetric {
	r.Lock()
	defer r.Unlock()
	if existing, ok := r.metrics[name]; ok {
		if reflect.TypeOf(existing) == reflect.TypeOf(metric) {
			return existing
		}
		panic(fmt.Sprintf(errFmtMetricExists, name, existing))
	}
	r.metrics[name] = metric
	return metric
}

func (r *Registry) list() map[string]GraphiteMetric {
	metrics := make(map[string]GraphiteMetric)
	r.Lock()
	for name, metric := range r.metrics {
		metrics[name] = metric
	}
	r.Unlock()
	return metrics
}

// Clear removes all metrics from the global registry. Only useful in tests.
func Clear() {
	registry.Lock()
	registry.metrics = make(map[string]GraphiteMetric)
	registry.Unlock()
}
