package boot

import (
	"github.com/noctsys/noct/log"
)

// Bootstrap is the root of the configuration file.
type Bootstrap struct {
	Noct Noct `json:"noct"`
}

// Noct holds every noct.* block.
type Noct struct {
	Application AppInfo    `json:"application"`
	Log         log.Config `json:"log"`
	Console     Console    `json:"console"`
	Resource    Resource   `json:"resource"`
	Metrics     Metrics    `json:"metrics"`
	Tracing     Tracing    `json:"tracing"`
}

// AppInfo is the noct.application block.
type AppInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// CloseBanner suppresses the startup banner.
	CloseBanner bool `json:"close_banner"`
}

// Console is the noct.console block.
type Console struct {
	Capacity int `json:"capacity"`
	MaxLines int `json:"max_lines"`
}

// Resource is the noct.resource block.
type Resource struct {
	// Manifest is loaded into the database at start when set.
	Manifest     string `json:"manifest"`
	WatchPlugins bool   `json:"watch_plugins"`
	// Debounce is a Go duration string, default 100ms.
	Debounce string `json:"debounce"`
}

// Metrics is the noct.metrics block. The endpoint is off when Addr is
// empty.
type Metrics struct {
	Addr string `json:"addr"`
	Path string `json:"path"`
}

// Tracing is the noct.tracing block. Spans are exported over OTLP/gRPC
// when Addr is set.
type Tracing struct {
	Addr     string  `json:"addr"`
	Insecure bool    `json:"insecure"`
	Ratio    float64 `json:"ratio"`
}

// defaults returns a Bootstrap pre-filled with the values used for keys
// absent from the file.
func defaults() Bootstrap {
	return Bootstrap{Noct: Noct{
		Log:     log.DefaultConfig(),
		Console: Console{Capacity: log.DefaultRingCapacity, MaxLines: 512},
		Metrics: Metrics{Path: "/metrics"},
		Tracing: Tracing{Ratio: 1},
	}}
}
