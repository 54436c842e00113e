package confloader

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is the quiet period after the last event before callbacks
// run. Editors often write a file several times per save.
const DefaultSettle = 100 * time.Millisecond

// Watcher reports changes to settings files.
//
// Directories are watched rather than files so editor rename-and-replace
// saves are seen; events for other files in the same directory are
// ignored. A burst of events for one file yields one callback.
type Watcher struct {
	fs       *fsnotify.Watcher
	settle   time.Duration
	logger   *slog.Logger
	mu       sync.RWMutex
	files    map[string]struct{}
	onChange []func(string)
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.settle = d
	}
}

// NewWatcher creates a watcher with no files.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:     fs,
		settle: DefaultSettle,
		logger: slog.Default(),
		files:  make(map[string]struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch adds a file. Its directory must exist.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	w.mu.Lock()
	w.files[abs] = struct{}{}
	w.mu.Unlock()

	w.logger.Debug("watching settings file", "file", abs)
	return nil
}

// OnChange registers fn to run with the absolute path of a changed file.
// Callbacks run on the watcher goroutine, one file at a time.
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Start delivers change notifications until Stop is called.
func (w *Watcher) Start() {
	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			abs, ok := w.watched(ev.Name)
			if !ok {
				continue
			}
			pending[abs] = struct{}{}
			timer.Reset(w.settle)

		case <-timer.C:
			for path := range pending {
				w.logger.Info("settings file changed", "file", path)
				w.notify(path)
			}
			clear(pending)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("settings watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// StartAsync runs Start in a goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) watched(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.files[abs]
	return abs, ok
}

func (w *Watcher) notify(path string) {
	w.mu.RLock()
	fns := append([]func(string){}, w.onChange...)
	w.mu.RUnlock()

	for _, fn := range fns {
		fn(path)
	}
}
