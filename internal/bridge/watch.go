package bridge

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/twistedxcom/tmuxbridge/internal/logging"
)

var watchLog = logging.ForComponent(logging.CompWatch)

// debounceDelay coalesces bursts of write events on the same input file
// into a single wake-up.
const debounceDelay = 100 * time.Millisecond

// InputWatcher watches pane directories for input-file writes and wakes the
// poller early, so a drain does not wait out the full poll interval. It is
// a latency optimization only: the poll timer remains the correctness
// mechanism, and a watcher that fails to start just means timer-paced
// drains.
//
// Rewrites performed by the bridge itself are announced via NoteSelfWrite
// and ignored for one ignore window; without that, draining a file would
// immediately wake the poller again and submissions that should wait one
// full interval (the stall rule) would fire early.
type InputWatcher struct {
	watcher      *fsnotify.Watcher
	wake         chan struct{}
	ignoreWindow time.Duration

	mu         sync.Mutex
	watched    map[string]bool
	selfWrites map[string]time.Time
}

// NewInputWatcher creates a watcher. ignoreWindow should be at least the
// poll interval so the event from a self-write always lands inside it.
func NewInputWatcher(ignoreWindow time.Duration) (*InputWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &InputWatcher{
		watcher:      fw,
		wake:         make(chan struct{}, 1),
		ignoreWindow: ignoreWindow,
		watched:      make(map[string]bool),
		selfWrites:   make(map[string]time.Time),
	}, nil
}

// Wake returns the channel the poller selects on for early cycles.
func (w *InputWatcher) Wake() <-chan struct{} {
	return w.wake
}

// NoteSelfWrite marks a path as about to be rewritten by the bridge, so
// the resulting event is ignored.
func (w *InputWatcher) NoteSelfWrite(path string) {
	w.mu.Lock()
	w.selfWrites[path] = time.Now()
	w.mu.Unlock()
}

// WatchDirs registers the given pane directories, dropping stale entries
// whose directories are gone. Called by the poller after each cycle.
func (w *InputWatcher) WatchDirs(dirs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for watchedDir := range w.watched {
		if _, err := os.Stat(watchedDir); err != nil {
			delete(w.watched, watchedDir)
		}
	}
	for _, dir := range dirs {
		if w.watched[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			watchLog.Debug("watch_add_failed",
				slog.String("dir", dir), slog.String("error", err.Error()))
			continue
		}
		w.watched[dir] = true
	}
}

// Run consumes filesystem events until the context is cancelled. Only
// creates/writes of input files count; events within the ignore window of a
// self-write are dropped.
func (w *InputWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != InputFileName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if w.isSelfWrite(event.Name) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case w.wake <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			watchLog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

func (w *InputWatcher) isSelfWrite(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	at, ok := w.selfWrites[path]
	if !ok {
		return false
	}
	if time.Since(at) > w.ignoreWindow {
		delete(w.selfWrites, path)
		return false
	}
	return true
}
