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

var sweepLog = logging.ForComponent(logging.CompSweep)

// Sweeper removes directories and mapping entries that no longer correspond
// to a live entity. Deletion is bottom-up within kept subtrees (panes, then
// windows, then sessions); a stale session or window is deleted wholesale
// without inspecting its children.
type Sweeper struct {
	root  string
	store *MappingStore
}

// NewSweeper creates a sweeper over the output root.
func NewSweeper(root string, store *MappingStore) *Sweeper {
	return &Sweeper{root: root, store: store}
}

// Sweep reconciles the on-disk tree against the live universe, deleting
// stale pane/window/session directories and pruning stale mapping entries.
// Session directories left holding only the mapping file are removed too: a
// session with no live windows leaves no trace.
func (s *Sweeper) Sweep(panes []tmux.Pane) {
	if _, err := os.Stat(s.root); err != nil {
		return
	}

	expectedSessions := make(map[string]bool)
	expectedWindows := make(map[string]bool)
	expectedPanes := make(map[string]bool)
	liveWindows := make(map[string]map[string]bool)
	liveSessions := make(map[string]bool)

	for _, p := range panes {
		liveSessions[p.Session] = true
		if liveWindows[p.Session] == nil {
			liveWindows[p.Session] = make(map[string]bool)
		}
		liveWindows[p.Session][p.WindowID] = true

		sessionDir := SessionDir(s.root, p.Session)
		expectedSessions[sessionDir] = true

		// Resolve through the mapping; fall back to the derived name for a
		// window reconciliation has not recorded yet.
		windowName, ok := s.store.Get(p.Session)[p.WindowID]
		if !ok {
			windowName = WindowDirName(p.WindowIndex, p.WindowName)
		}
		windowDir := filepath.Join(sessionDir, windowName)
		expectedWindows[windowDir] = true
		expectedPanes[filepath.Join(windowDir, strconv.Itoa(p.PaneIndex))] = true
	}

	s.store.PruneStale(liveWindows)
	s.store.Retain(liveSessions)

	// Collect first, delete after: never delete a directory while still
	// iterating its parent's listing.
	var stalePanes, staleWindows, staleSessions []string

	sessionEntries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	for _, sessionEntry := range sessionEntries {
		if !sessionEntry.IsDir() || sessionEntry.Name()[0] == '.' {
			continue
		}
		sessionDir := filepath.Join(s.root, sessionEntry.Name())
		if !expectedSessions[sessionDir] {
			staleSessions = append(staleSessions, sessionDir)
			continue
		}

		windowEntries, err := os.ReadDir(sessionDir)
		if err != nil {
			continue
		}
		for _, windowEntry := range windowEntries {
			if !windowEntry.IsDir() {
				continue
			}
			windowDir := filepath.Join(sessionDir, windowEntry.Name())
			if !expectedWindows[windowDir] {
				staleWindows = append(staleWindows, windowDir)
				continue
			}

			paneEntries, err := os.ReadDir(windowDir)
			if err != nil {
				continue
			}
			for _, paneEntry := range paneEntries {
				if !paneEntry.IsDir() {
					continue
				}
				paneDir := filepath.Join(windowDir, paneEntry.Name())
				if !expectedPanes[paneDir] {
					stalePanes = append(stalePanes, paneDir)
				}
			}
		}
	}

	for _, dir := range stalePanes {
		s.remove("pane", dir)
	}
	for _, dir := range staleWindows {
		s.remove("window", dir)
	}
	for _, dir := range staleSessions {
		s.remove("session", dir)
	}

	s.removeEmptySessionDirs()
}

// removeEmptySessionDirs deletes session directories whose only remaining
// content is the mapping file (or nothing at all).
func (s *Sweeper) removeEmptySessionDirs() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		sessionDir := filepath.Join(s.root, entry.Name())
		children, err := os.ReadDir(sessionDir)
		if err != nil {
			continue
		}
		empty := true
		for _, child := range children {
			if child.Name() != MappingFileName {
				empty = false
				break
			}
		}
		if empty {
			s.remove("session", sessionDir)
		}
	}
}

func (s *Sweeper) remove(kind, dir string) {
	if err := fsutil.RemoveTree(dir); err != nil {
		sweepLog.Warn("stale_remove_failed",
			slog.String("kind", kind), slog.String("dir", dir),
			slog.String("error", err.Error()))
		return
	}
	sweepLog.Debug("stale_removed", slog.String("kind", kind), slog.String("dir", dir))
}
