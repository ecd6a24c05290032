package log

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"
)

// stackCfg holds runtime-configurable stack trace settings.
type stackCfg struct {
	enabled        bool
	skip           int
	maxFrames      int
	minLevel       log.Level
	filterPrefixes []string
}

var stconf atomic.Pointer[stackCfg]

func init() {
	stconf.Store(&stackCfg{
		enabled:   false,
		skip:      6,
		maxFrames: 32,
		minLevel:  log.LevelError,
		filterPrefixes: []string{
			"github.com/go-kratos/kratos",
			"github.com/rs/zerolog",
			"github.com/noctsys/noct/log",
		},
	})
}

func getStackConfig() *stackCfg {
	if c := stconf.Load(); c != nil {
		return c
	}
	return &stackCfg{}
}

// EnableStackTraces attaches a trimmed goroutine stack to records at or
// above minLevel.
func EnableStackTraces(enabled bool, minLevel Level) {
	cur := getStackConfig()
	stconf.Store(&stackCfg{
		enabled:        enabled,
		skip:           cur.skip,
		maxFrames:      cur.maxFrames,
		minLevel:       minLevel.kratos(),
		filterPrefixes: append([]string(nil), cur.filterPrefixes...),
	})
}

// captureStack collects up to maxFrames frames as "func file:line" lines,
// skipping frames that belong to the logging stack itself.
func captureStack() string {
	cfg := getStackConfig()
	pcs := make([]uintptr, cfg.maxFrames)
	n := runtime.Callers(cfg.skip, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		fr, more := frames.Next()
		if fr.Function != "" || fr.File != "" {
			if !hasAnyPrefix(fr.Function, cfg.filterPrefixes) && !hasAnyPrefix(fr.File, cfg.filterPrefixes) {
				fmt.Fprintf(&b, "%s %s:%d\n", fr.Function, fr.File, fr.Line)
			}
		}
		if !more {
			break
		}
	}
	return b.String()
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
