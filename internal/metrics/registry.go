// Package metrics holds the prometheus registry shared by noct components.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry (unified registration for all components)
var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Registry returns the shared registry.
func Registry() *prometheus.Registry { return registry }

// MustRegister registers collectors in batch (panics if registration fails).
func MustRegister(cs ...prometheus.Collector) {
	registry.MustRegister(cs...)
}

// Handler serves the shared registry in the text exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
