package resource

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/noctsys/noct/log"
	"github.com/noctsys/noct/native"
)

// DefaultDebounce delays a reload until writes to a plugin file settle.
const DefaultDebounce = 100 * time.Millisecond

// ErrNoPluginDirectory is returned by NewWatcher when neither the database
// nor WithWatchDir names a directory.
var ErrNoPluginDirectory = errors.New("resource: no plugin directory to watch")

// Watcher reloads cached plugins when their module file changes on disk.
type Watcher struct {
	db       *Database
	dir      string
	debounce time.Duration
	onReload func(name string, err error)

	fw      *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]*pendingReload
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// pendingReload is a debounced reload. timer is guarded by Watcher.mu.
type pendingReload struct {
	timer *time.Timer
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatchDir watches dir instead of the database plugin directory.
func WithWatchDir(dir string) WatcherOption {
	return func(w *Watcher) { w.dir = dir }
}

// WithReloadHook is called after every reload attempt.
func WithReloadHook(fn func(name string, err error)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher prepares a watcher over the plugin directory of db.
func NewWatcher(db *Database, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		db:       db,
		dir:      db.Directories().Plugin,
		debounce: DefaultDebounce,
		pending:  map[string]*pendingReload{},
	}
	for _, o := range opts {
		o(w)
	}
	if w.dir == "" {
		return nil, ErrNoPluginDirectory
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fw = fw
	return w, nil
}

// Start begins watching. It returns once the directory is registered; the
// event loop runs until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fw.Add(w.dir); err != nil {
		return err
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)
	log.Infow("msg", "plugin watcher started", "db", w.db.ID(), "dir", w.dir)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.schedule(ev.Name)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Warnw("msg", "plugin watcher error", "db", w.db.ID(), "error", err)
		}
	}
}

func (w *Watcher) schedule(path string) {
	if filepath.Ext(path) != native.Extension {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return
	}
	// A timer that already fired has its reload in flight and gets a
	// successor instead of a Reset.
	if r, ok := w.pending[path]; ok && r.timer.Stop() {
		r.timer.Reset(w.debounce)
		return
	}
	r := &pendingReload{}
	w.wg.Add(1)
	r.timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.reload(path, r)
	})
	w.pending[path] = r
}

// reload hot-swaps every cached plugin opened from path. A file whose stem
// is a cached plugin name is reloaded under that name.
func (w *Watcher) reload(path string, r *pendingReload) {
	w.mu.Lock()
	if w.pending == nil {
		w.mu.Unlock()
		return
	}
	if w.pending[path] == r {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	names := w.db.pluginNamesAt(path)
	if len(names) == 0 {
		stem := strings.TrimSuffix(filepath.Base(path), native.Extension)
		if _, ok := w.db.FindPlugin(stem); ok {
			names = []string{stem}
		}
	}
	for _, name := range names {
		err := w.db.LoadPluginFromFile(path, name)
		if err != nil {
			log.Warnw("msg", "plugin reload failed", "db", w.db.ID(), "name", name, "path", path, "error", err)
		} else {
			log.Infow("msg", "plugin reloaded", "db", w.db.ID(), "name", name, "path", path)
		}
		if w.onReload != nil {
			w.onReload(name, err)
		}
	}
}

// Close stops the watcher, cancels pending reloads and waits for any reload
// already running.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, r := range w.pending {
		if r.timer.Stop() {
			w.wg.Done()
		}
	}
	w.pending = nil
	w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
	err := w.fw.Close()
	w.wg.Wait()
	return err
}
