package resource

import (
	"github.com/noctsys/noct/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	categoryTexture = "texture"
	categoryFont    = "font"
	categorySound   = "sound"
	categoryShader  = "shader"
	categoryColor   = "color"
	categoryPlugin  = "plugin"
)

var (
	loadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "noct",
		Subsystem: "resource",
		Name:      "loads_total",
		Help:      "Resource load attempts by category and result.",
	}, []string{"category", "result"})

	entriesGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "noct",
		Subsystem: "resource",
		Name:      "entries",
		Help:      "Cached resource entries by category across all databases.",
	}, []string{"category"})
)

func init() {
	metrics.MustRegister(loadsTotal, entriesGauge)
}

func observeLoad(category string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	loadsTotal.WithLabelValues(category, result).Inc()
}
