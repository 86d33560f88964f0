package bridge

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/twistedxcom/tmuxbridge/internal/fsutil"
	"github.com/twistedxcom/tmuxbridge/internal/logging"
	"github.com/twistedxcom/tmuxbridge/internal/tmux"
)

var reconcileLog = logging.ForComponent(logging.CompReconcile)

// Reconciler keeps the window-directory mapping and the on-disk tree in
// step with the live universe. It owns the invariant that a window keeps
// one directory across renames: directories are renamed in place, never
// deleted and recreated, so pane content survives.
type Reconciler struct {
	root  string
	store *MappingStore

	migrated bool
}

// NewReconciler creates a reconciler over the output root.
func NewReconciler(root string, store *MappingStore) *Reconciler {
	return &Reconciler{root: root, store: store}
}

// Reconcile updates mappings and directories for every live window. The
// legacy-layout migration runs exactly once, before the first
// reconciliation after process start.
func (r *Reconciler) Reconcile(panes []tmux.Pane) {
	if !r.migrated {
		r.migrateLegacy(panes)
		r.migrated = true
	}

	seen := make(map[string]bool)
	for _, p := range panes {
		key := p.Session + "\x00" + p.WindowID
		if seen[key] {
			continue
		}
		seen[key] = true
		r.reconcileWindow(p)
	}
}

// reconcileWindow resolves one window against its session's mapping.
// Directory creation is left to the snapshot step; only renames touch the
// filesystem here.
func (r *Reconciler) reconcileWindow(p tmux.Pane) {
	mapping := r.store.Get(p.Session)
	desired := WindowDirName(p.WindowIndex, p.WindowName)

	current, ok := mapping[p.WindowID]
	if !ok {
		mapping[p.WindowID] = desired
		r.store.MarkChanged(p.Session)
		return
	}
	if current == desired {
		return
	}

	// Rename: same windowId, different derived name.
	sessionDir := SessionDir(r.root, p.Session)
	oldDir := filepath.Join(sessionDir, current)
	newDir := filepath.Join(sessionDir, desired)
	r.renameWindowDir(oldDir, newDir)

	mapping[p.WindowID] = desired
	r.store.MarkChanged(p.Session)
	reconcileLog.Info("window_renamed",
		slog.String("session", p.Session),
		slog.String("window_id", p.WindowID),
		slog.String("from", current),
		slog.String("to", desired))
}

// renameWindowDir moves a window directory to its new name. A pre-existing
// directory at the target (stale tree from an unrelated window) is deleted
// first so the rename is never ambiguous. A source that vanished between
// enumeration and rename is already the state we want.
func (r *Reconciler) renameWindowDir(oldDir, newDir string) {
	if oldDir == newDir {
		return
	}
	if _, err := os.Stat(oldDir); err != nil {
		return
	}
	if _, err := os.Stat(newDir); err == nil {
		if err := fsutil.RemoveTree(newDir); err != nil {
			reconcileLog.Warn("rename_collision_cleanup_failed",
				slog.String("dir", newDir), slog.String("error", err.Error()))
			return
		}
	}
	if err := os.Rename(oldDir, newDir); err != nil && !os.IsNotExist(err) {
		reconcileLog.Warn("window_rename_failed",
			slog.String("from", oldDir), slog.String("to", newDir),
			slog.String("error", err.Error()))
	}
}

// migrateLegacy converts the old layout, where window directories were
// named by bare numeric index, to the mapped index-name layout. A numeric
// directory whose index is still occupied by a live window is renamed and
// recorded in the mapping; one whose window is gone has no identity left to
// reconcile against and is deleted. Idempotent: after one pass no numeric
// directories remain.
func (r *Reconciler) migrateLegacy(panes []tmux.Pane) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return
	}

	// Reverse lookup: sanitized session dir name -> live session name, and
	// per session, window index -> first pane observed at that index.
	sessionByDir := make(map[string]string)
	windowByIndex := make(map[string]map[int]tmux.Pane)
	for _, p := range panes {
		sessionByDir[SanitizeName(p.Session)] = p.Session
		byIndex := windowByIndex[p.Session]
		if byIndex == nil {
			byIndex = make(map[int]tmux.Pane)
			windowByIndex[p.Session] = byIndex
		}
		if _, ok := byIndex[p.WindowIndex]; !ok {
			byIndex[p.WindowIndex] = p
		}
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		session, live := sessionByDir[entry.Name()]
		if !live {
			// Dead session; the sweeper deletes it wholesale.
			continue
		}
		r.migrateSessionDir(filepath.Join(r.root, entry.Name()), session, windowByIndex[session])
	}
}

func (r *Reconciler) migrateSessionDir(sessionDir, session string, byIndex map[int]tmux.Pane) {
	children, err := os.ReadDir(sessionDir)
	if err != nil {
		return
	}
	for _, child := range children {
		if !child.IsDir() {
			continue
		}
		index, err := strconv.Atoi(child.Name())
		if err != nil {
			continue // already in the new layout
		}
		oldDir := filepath.Join(sessionDir, child.Name())

		p, occupied := byIndex[index]
		if !occupied {
			if err := fsutil.RemoveTree(oldDir); err != nil {
				reconcileLog.Warn("legacy_dir_remove_failed",
					slog.String("dir", oldDir), slog.String("error", err.Error()))
			}
			continue
		}

		desired := WindowDirName(p.WindowIndex, p.WindowName)
		r.renameWindowDir(oldDir, filepath.Join(sessionDir, desired))
		r.store.Get(session)[p.WindowID] = desired
		r.store.MarkChanged(session)
		reconcileLog.Info("legacy_dir_migrated",
			slog.String("session", session),
			slog.String("from", child.Name()),
			slog.String("to", desired))
	}
}
