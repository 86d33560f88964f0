// Package bridge mirrors the live tmux universe into a filesystem tree and
// drains per-pane input files back into keystrokes. It owns the three
// state-sensitive pieces of the system: the window-directory mapping, the
// reconcile/sweep pass that keeps the tree matching live panes, and the
// input-queue state machine.
package bridge

import (
	"fmt"
	"path/filepath"
	"regexp"
)

var unsafeChars = regexp.MustCompile(`[^\w\-.]`)

// SanitizeName maps an arbitrary session or window name to a filesystem-safe
// token: word characters, '-' and '.' pass through, everything else
// (separators, whitespace, shell metacharacters) becomes '_'.
//
// Known limitation: the mapping is not injective. Two sessions named
// "a b" and "a_b" share a directory. Collisions are not guarded.
func SanitizeName(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// WindowDirName composes the directory name for a window from its current
// index and display name. Recorded in the mapping when the window is first
// seen or renamed; the windowId in the mapping is what survives renames.
func WindowDirName(index int, name string) string {
	return fmt.Sprintf("%d-%s", index, SanitizeName(name))
}

// SessionDir returns the directory for a session under root.
func SessionDir(root, session string) string {
	return filepath.Join(root, SanitizeName(session))
}

// MappingFileName is the per-session window mapping file.
const MappingFileName = "windows.json"

// ContentFileName holds the pane snapshot.
const ContentFileName = "content.txt"

// InputFileName is the externally writable input queue file.
const InputFileName = "input.txt"
