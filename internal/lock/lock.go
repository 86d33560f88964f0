// Package lock guards the output root against concurrent bridge instances.
// Two pollers draining the same input files would each consume half of
// every message, so a second instance must refuse to start.
package lock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/twistedxcom/tmuxbridge/internal/logging"
)

var lockLog = logging.ForComponent(logging.CompLock)

// ErrLocked is returned when another live instance holds the output root.
var ErrLocked = errors.New("output root is locked by another instance")

// FileName is the lock marker inside the output root.
const FileName = ".lock"

// Lock is an exclusive, advisory lock on an output root, held for the
// lifetime of the process.
type Lock struct {
	fl   *flock.Flock
	path string
}

// Acquire takes a non-blocking exclusive lock on root/.lock and records the
// owning PID in it. Returns ErrLocked when the lock is already held.
func Acquire(root string) (*Lock, error) {
	path := filepath.Join(root, FileName)
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lockfile: %s)", ErrLocked, path)
	}

	// The PID is informational, for humans inspecting the tree. The flock
	// itself is the authority and dies with the process.
	if err := os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("writing pid to %s: %w", path, err)
	}

	lockLog.Debug("lock_acquired", slog.String("path", path), slog.Int("pid", os.Getpid()))
	return &Lock{fl: fl, path: path}, nil
}

// Release drops the lock. Safe to call once at shutdown.
func (l *Lock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	if err := l.fl.Unlock(); err != nil {
		lockLog.Warn("lock_release_failed", slog.String("path", l.path), slog.String("error", err.Error()))
	}
	l.fl = nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}
