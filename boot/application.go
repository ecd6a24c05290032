// Package boot loads the noct configuration and wires the logger, console,
// resource database, plugin watcher, metrics endpoint and tracer provider
// into a ready noct.Core.
package boot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/noctsys/noct"
	"github.com/noctsys/noct/internal/banner"
	"github.com/noctsys/noct/internal/metrics"
	"github.com/noctsys/noct/log"
	"github.com/noctsys/noct/resource"
)

// consoleProducer tags records the global logger mirrors to the console.
const consoleProducer = 0

// Driver is the host frame loop. It returns when ctx is done or the
// application decides to quit.
type Driver func(ctx context.Context, core *noct.Core) error

// Application owns the configured subsystems of one run.
type Application struct {
	path   string
	opts   []resource.Option
	banner io.Writer

	conf        config.Config
	bootstrap   *Bootstrap
	core        *noct.Core
	watcher     *resource.Watcher
	metrics     *http.Server
	metricsAddr string
	tracing     *tracing
	logCloser   io.Closer

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures an Application.
type Option func(*Application)

// WithConfigPath overrides the path from the ConfigManager.
func WithConfigPath(path string) Option {
	return func(a *Application) { a.path = path }
}

// WithResourceOptions is passed to the resource database, for example to
// install renderer specific decoders.
func WithResourceOptions(opts ...resource.Option) Option {
	return func(a *Application) { a.opts = append(a.opts, opts...) }
}

// WithBannerOutput redirects the startup banner, os.Stdout by default.
func WithBannerOutput(w io.Writer) Option {
	return func(a *Application) { a.banner = w }
}

// NewApplication returns an unstarted application.
func NewApplication(opts ...Option) *Application {
	a := &Application{banner: os.Stdout}
	for _, o := range opts {
		o(a)
	}
	if a.path == "" {
		a.path = GetConfigManager().GetConfigPath()
	}
	return a
}

// Start loads the configuration and builds the Core. On failure everything
// started so far is shut down again.
func (a *Application) Start(ctx context.Context) (core *noct.Core, err error) {
	if a == nil {
		return nil, fmt.Errorf("application instance is nil")
	}
	st := time.Now()
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.conf, a.bootstrap, err = LoadConfig(a.path)
	if err != nil {
		return nil, err
	}
	bc := a.bootstrap.Noct
	if !bc.Application.CloseBanner {
		if err = banner.Show(a.banner, configDir(a.path), bc.Application.Name, bc.Application.Version); err != nil {
			return nil, err
		}
	}

	console := log.NewConsole(
		log.WithCapacity(bc.Console.Capacity),
		log.WithMaxLines(bc.Console.MaxLines),
	)
	a.logCloser, err = log.InitLogger(bc.Application.Name, bc.Application.Version, bc.Log,
		log.NewRingLogger(console, consoleProducer))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if bc.Tracing.Addr != "" {
		if a.tracing, err = startTracing(ctx, bc.Tracing, bc.Application); err != nil {
			return nil, err
		}
	}

	db := resource.NewDatabase(a.opts...)
	a.core = noct.New(noct.WithResources(db), noct.WithConsole(console))

	if bc.Resource.Manifest != "" {
		if err = db.LoadFromFileContext(ctx, bc.Resource.Manifest); err != nil {
			return nil, fmt.Errorf("failed to load resource manifest: %w", err)
		}
	}
	if bc.Resource.WatchPlugins {
		if err = a.startWatcher(ctx, db); err != nil {
			return nil, err
		}
	}
	if bc.Metrics.Addr != "" {
		if err = a.startMetrics(bc.Metrics); err != nil {
			return nil, err
		}
	}

	log.Infow("msg", "noct application started",
		"name", bc.Application.Name,
		"version", bc.Application.Version,
		"db", db.ID(),
		"entries", db.Stats().Total(),
		"elapsed", time.Since(st).String())
	return a.core, nil
}

// configDir is the directory holding the configuration at path.
func configDir(path string) string {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

func (a *Application) startWatcher(ctx context.Context, db *resource.Database) error {
	debounce, _ := a.bootstrap.debounce()
	w, err := resource.NewWatcher(db, resource.WithDebounce(debounce))
	if errors.Is(err, resource.ErrNoPluginDirectory) {
		log.Warnw("msg", "plugin watching enabled without a plugin directory")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create plugin watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to start plugin watcher: %w", err)
	}
	a.watcher = w
	return nil
}

func (a *Application) startMetrics(c Metrics) error {
	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", c.Addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle(c.Path, metrics.Handler())
	a.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	a.metricsAddr = ln.Addr().String()
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("msg", "metrics endpoint stopped", "addr", c.Addr, "err", err)
		}
	}(a.metrics)
	log.Infow("msg", "serving metrics", "addr", a.metricsAddr, "path", c.Path)
	return nil
}

// MetricsAddr returns the bound metrics address, empty when disabled.
func (a *Application) MetricsAddr() string { return a.metricsAddr }

// Bootstrap returns the scanned configuration, nil before Start.
func (a *Application) Bootstrap() *Bootstrap { return a.bootstrap }

// Core returns the core built by Start.
func (a *Application) Core() *noct.Core { return a.core }

// Run starts the application, hands the core to drive and shuts down when
// drive returns or the process receives SIGINT or SIGTERM.
func (a *Application) Run(ctx context.Context, drive Driver) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := a.Start(ctx)
	if err != nil {
		return err
	}
	runErr := drive(ctx, core)
	if errors.Is(runErr, context.Canceled) {
		log.Info("received shutdown signal")
		runErr = nil
	}
	return errors.Join(runErr, a.Close())
}

// Close shuts down in reverse start order: metrics endpoint, watcher, core,
// tracer provider, configuration, then the log file. It is safe to call more than once.
func (a *Application) Close() error {
	a.shutdownOnce.Do(func() {
		var errs []error
		if a.metrics != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := a.metrics.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("stop metrics endpoint: %w", err))
			}
			cancel()
		}
		if a.watcher != nil {
			if err := a.watcher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close plugin watcher: %w", err))
			}
		}
		if a.core != nil {
			if err := a.core.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if a.tracing != nil {
			if err := a.tracing.shutdown(); err != nil {
				errs = append(errs, err)
			}
		}
		if a.conf != nil {
			if err := a.conf.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close configuration: %w", err))
			}
		}
		if a.logCloser != nil {
			log.Info("noct application stopped")
			if err := a.logCloser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close log output: %w", err))
			}
		}
		a.shutdownErr = errors.Join(errs...)
	})
	return a.shutdownErr
}
