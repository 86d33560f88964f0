package bridge

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/twistedxcom/tmuxbridge/internal/fsutil"
	"github.com/twistedxcom/tmuxbridge/internal/logging"
)

var mappingLog = logging.ForComponent(logging.CompReconcile)

// WindowMapping is a session's durable table of windowId -> directory name.
// It is the single source of truth for resolving window renames: the id
// survives a rename, the directory name records what the window was called
// when it was last reconciled.
type WindowMapping map[string]string

// MappingStore loads and persists per-session window mappings
// (root/<session>/windows.json). Tables are loaded lazily on first access
// and written back atomically, but only for sessions that actually changed
// during a cycle.
//
// A corrupt or unreadable mapping file degrades to an empty table; the
// directory names are then re-derived from the current live state.
type MappingStore struct {
	root    string
	tables  map[string]WindowMapping
	changed map[string]bool
}

// NewMappingStore creates a store rooted at the output directory.
func NewMappingStore(root string) *MappingStore {
	return &MappingStore{
		root:    root,
		tables:  make(map[string]WindowMapping),
		changed: make(map[string]bool),
	}
}

// Get returns the mapping table for a session, loading it from disk on
// first access. The returned map is live; mutate it and call MarkChanged.
func (s *MappingStore) Get(session string) WindowMapping {
	if table, ok := s.tables[session]; ok {
		return table
	}
	table := s.load(session)
	s.tables[session] = table
	return table
}

func (s *MappingStore) load(session string) WindowMapping {
	path := filepath.Join(SessionDir(s.root, session), MappingFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return make(WindowMapping)
	}
	var table WindowMapping
	if err := json.Unmarshal(data, &table); err != nil {
		mappingLog.Warn("mapping_file_corrupt",
			slog.String("path", path), slog.String("error", err.Error()))
		return make(WindowMapping)
	}
	if table == nil {
		table = make(WindowMapping)
	}
	return table
}

// MarkChanged flags a session's table for persistence at the end of the
// current cycle.
func (s *MappingStore) MarkChanged(session string) {
	s.changed[session] = true
}

// PruneStale removes mapping entries whose windowId is no longer live in
// that session. Tables that shrink are marked changed.
func (s *MappingStore) PruneStale(liveWindows map[string]map[string]bool) {
	for session, table := range s.tables {
		live := liveWindows[session]
		for windowID := range table {
			if !live[windowID] {
				delete(table, windowID)
				s.changed[session] = true
			}
		}
	}
}

// Retain drops the in-memory tables (and pending change flags) of sessions
// that are no longer live. Their on-disk files go away with the session
// directory, deleted by the sweeper.
func (s *MappingStore) Retain(liveSessions map[string]bool) {
	for session := range s.tables {
		if !liveSessions[session] {
			delete(s.tables, session)
			delete(s.changed, session)
		}
	}
}

// SaveChanged persists every table marked changed this cycle, atomically.
// A failure to write one session's table does not block the others.
func (s *MappingStore) SaveChanged() {
	for session := range s.changed {
		table, ok := s.tables[session]
		if !ok {
			delete(s.changed, session)
			continue
		}
		dir := SessionDir(s.root, session)
		if err := os.MkdirAll(dir, 0755); err != nil {
			mappingLog.Warn("mapping_dir_create_failed",
				slog.String("session", session), slog.String("error", err.Error()))
			continue
		}
		path := filepath.Join(dir, MappingFileName)
		if err := fsutil.AtomicWriteJSON(path, table); err != nil {
			mappingLog.Warn("mapping_save_failed",
				slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		delete(s.changed, session)
	}
}
