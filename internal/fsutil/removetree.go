package fsutil

import (
	"os"
	"path/filepath"
)

// RemoveTree deletes path and everything under it, depth-first. Entries that
// disappear between listing and removal are treated as already removed: the
// live tmux entity behind a directory can vanish mid-sweep, and "already
// gone" is the outcome the caller wanted anyway.
//
// This is the single deletion primitive for pane, window, session and
// legacy directories.
func RemoveTree(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if !info.IsDir() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if err := RemoveTree(filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
