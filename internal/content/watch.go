// Package content watches boss template and script directories for edits.
package content

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the minimum spacing between two reports for the same file.
const DefaultDebounce = 100 * time.Millisecond

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watcher reports edits to boss YAML and Lua files. Repeated events for the same
// file inside the debounce window are collapsed into one.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	// Events carries the path of each changed file. Closed by Close.
	Events chan string
	// Errors carries watcher failures. Closed by Close.
	Errors chan error

	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher watches every directory in dirs (non-recursively).
//
// Precondition: every dir must exist.
// Postcondition: Returns a running Watcher or a non-nil error; no watch is left open on error.
func NewWatcher(logger *zap.Logger, debounce time.Duration, dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher := &Watcher{
		watcher:  w,
		logger:   logger,
		debounce: debounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher. Safe to call more than once.
//
// Postcondition: Events and Errors are closed.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	last := make(map[string]time.Time)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&relevantOps == 0 || !Relevant(ev.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[ev.Name]; ok && now.Sub(t) < w.debounce {
				continue
			}
			last[ev.Name] = now
			w.logger.Debug("content changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			select {
			case w.Events <- ev.Name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
				w.logger.Warn("dropping watcher error", zap.Error(err))
			}
		case <-w.closeCh:
			return
		}
	}
}

// Relevant reports whether path is a boss template or a boss script.
func Relevant(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".lua":
		return true
	default:
		return false
	}
}
