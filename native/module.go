// Package native loads compiled plugin modules through the operating
// system's shared-library loader and resolves their exported symbols.
//
// A Module is not safe for concurrent use; callers serialize access to a
// single instance. Modules reached through a resource.Database are
// serialized by the database lock.
package native

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/noctsys/noct/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Extension is the reserved file extension of native plugin modules.
const Extension = ".noct"

// Lang is the manifest language tag identifying native plugins.
const Lang = "noct"

var (
	openHandles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "noct",
		Name:      "plugin_handles_open",
		Help:      "Native plugin module handles currently held.",
	})
	openTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "noct",
		Name:      "plugin_open_total",
		Help:      "Native plugin open attempts by result.",
	}, []string{"result"})
)

func init() {
	metrics.MustRegister(openHandles, openTotal)
}

// Module owns at most one native module handle.
type Module struct {
	platform Platform
	handle   Handle
	open     bool
	path     string
	lastErr  *LoadError
	cleanup  runtime.Cleanup
}

// Option configures a Module.
type Option func(*Module)

// WithPlatform replaces the operating system loader.
func WithPlatform(p Platform) Option {
	return func(m *Module) { m.platform = p }
}

// New returns a Module without an open handle.
func New(opts ...Option) *Module {
	m := &Module{platform: System()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// OpenModule returns a Module with path already open.
func OpenModule(path string, opts ...Option) (*Module, error) {
	m := New(opts...)
	if err := m.Open(path); err != nil {
		return nil, err
	}
	return m, nil
}

type closeArg struct {
	platform Platform
	handle   Handle
}

func releaseHandle(a closeArg) {
	_ = a.platform.Close(a.handle)
	openHandles.Dec()
}

// Open loads the module at path. Any handle already held is closed first.
// The extension is checked before the filesystem is touched.
func (m *Module) Open(path string) error {
	if m.open {
		_ = m.Close()
	}
	m.path = path

	if ext := filepath.Ext(path); ext != Extension {
		return m.fail(&LoadError{
			Code:   CodeInvalidParameter,
			Path:   path,
			Detail: "invalid file type: '" + ext + "'",
			Err:    ErrInvalidExtension,
		})
	}
	if _, err := os.Stat(path); err != nil {
		code := CodeFileNotFound
		if !errors.Is(err, fs.ErrNotExist) {
			code = CodePathNotFound
		}
		return m.fail(&LoadError{Code: code, Path: path, Err: ErrNotFound})
	}

	h, err := m.platform.Open(path)
	if err != nil {
		return m.fail(toLoadError(err, ErrOpenFailed, path, ""))
	}

	m.handle = h
	m.open = true
	m.lastErr = nil
	m.cleanup = runtime.AddCleanup(m, releaseHandle, closeArg{platform: m.platform, handle: h})
	openHandles.Inc()
	openTotal.WithLabelValues("ok").Inc()
	return nil
}

func (m *Module) fail(err *LoadError) error {
	m.lastErr = err
	openTotal.WithLabelValues("error").Inc()
	return err
}

// Close releases the handle. Calling Close without a handle is a no-op.
func (m *Module) Close() error {
	if !m.open {
		return nil
	}
	m.cleanup.Stop()
	h := m.handle
	m.handle = 0
	m.open = false
	openHandles.Dec()
	if err := m.platform.Close(h); err != nil {
		le := toLoadError(err, ErrOpenFailed, m.path, "")
		m.lastErr = le
		return le
	}
	return nil
}

// IsOpen reports whether a handle is held.
func (m *Module) IsOpen() bool { return m.open }

// Path returns the path given to the last Open.
func (m *Module) Path() string { return m.path }

// NormalizeSymbol maps a documented symbol name, which may contain spaces,
// to the exported identifier.
func NormalizeSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, " ", "_")
}

// Find resolves symbol to its address. On failure it records a
// SymbolNotFound error naming the queried symbol and reports false.
func (m *Module) Find(symbol string) (uintptr, bool) {
	if !m.open {
		m.lastErr = &LoadError{Code: CodeInvalidHandle, Path: m.path, Symbol: symbol, Err: ErrNotOpen}
		return 0, false
	}
	p, err := m.platform.Symbol(m.handle, NormalizeSymbol(symbol))
	if err != nil || p == 0 {
		if err == nil {
			err = errors.New("undefined symbol: " + symbol)
		}
		m.lastErr = toLoadError(err, ErrSymbolNotFound, m.path, symbol)
		return 0, false
	}
	m.lastErr = nil
	return p, true
}

// LastError returns the most recent failure, or nil after a success.
func (m *Module) LastError() error {
	if m.lastErr == nil {
		return nil
	}
	return m.lastErr
}

// ErrorMessage returns the human readable text of the most recent failure.
func (m *Module) ErrorMessage() string {
	if m.lastErr == nil {
		return (&LoadError{Code: CodeOK}).Message()
	}
	return m.lastErr.Message()
}
