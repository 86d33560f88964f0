package bridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitWake(t *testing.T, w *InputWatcher, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-w.Wake():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestWatcherWakesOnInputWrite(t *testing.T) {
	w, err := NewInputWatcher(time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	dir := t.TempDir()
	w.WatchDirs([]string{dir})

	require.NoError(t, os.WriteFile(filepath.Join(dir, InputFileName), []byte("hi\n"), 0644))

	if !waitWake(t, w, 2*time.Second) {
		t.Fatal("no wake after input write")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	w, err := NewInputWatcher(time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	dir := t.TempDir()
	w.WatchDirs([]string{dir})

	require.NoError(t, os.WriteFile(filepath.Join(dir, ContentFileName), []byte("snapshot"), 0644))

	if waitWake(t, w, 300*time.Millisecond) {
		t.Fatal("woke on a non-input file")
	}
}

func TestWatcherSuppressesSelfWrites(t *testing.T) {
	w, err := NewInputWatcher(time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	dir := t.TempDir()
	w.WatchDirs([]string{dir})
	path := filepath.Join(dir, InputFileName)

	w.NoteSelfWrite(path)
	require.NoError(t, os.WriteFile(path, nil, 0644))

	if waitWake(t, w, 300*time.Millisecond) {
		t.Fatal("woke on the bridge's own rewrite")
	}
}

func TestWatchDirsDropsVanishedEntries(t *testing.T) {
	w, err := NewInputWatcher(time.Second)
	require.NoError(t, err)
	defer w.watcher.Close()

	parent := t.TempDir()
	gone := filepath.Join(parent, "0")
	require.NoError(t, os.Mkdir(gone, 0755))
	w.WatchDirs([]string{gone})
	require.True(t, w.watched[gone])

	require.NoError(t, os.Remove(gone))
	w.WatchDirs(nil)
	require.False(t, w.watched[gone])
}
