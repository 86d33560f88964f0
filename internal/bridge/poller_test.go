package bridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twistedxcom/tmuxbridge/internal/tmux"
)

func newTestPoller(root string, source *fakeSource, sink *fakeSink) *Poller {
	return NewPoller(Options{
		Root:      root,
		Interval:  10 * time.Millisecond,
		Source:    source,
		Snapshots: NewSnapshotWriter(&fakeCapturer{content: "captured\n"}, 100),
		Inputs:    NewInputProcessor(BlankLinePolicy{}, sink),
	})
}

func TestCycleMirrorsLivePanes(t *testing.T) {
	root := t.TempDir()
	source := &fakeSource{panes: []tmux.Pane{
		pane("main", "@1", 0, "shell", 0, "%1"),
		pane("main", "@1", 0, "shell", 1, "%2"),
		pane("work", "@5", 2, "vim", 0, "%3"),
	}}
	p := newTestPoller(root, source, &fakeSink{})

	p.Cycle(context.Background())

	for _, rel := range []string{
		"main/0-shell/0", "main/0-shell/1", "work/2-vim/0",
	} {
		paneDir := filepath.Join(root, rel)
		assert.True(t, dirExists(paneDir), rel)
		_, err := os.Stat(filepath.Join(paneDir, ContentFileName))
		assert.NoError(t, err, rel)
		_, err = os.Stat(filepath.Join(paneDir, InputFileName))
		assert.NoError(t, err, rel)
	}
	for _, session := range []string{"main", "work"} {
		_, err := os.Stat(filepath.Join(root, session, MappingFileName))
		assert.NoError(t, err, session)
	}
}

func TestCycleIdempotent(t *testing.T) {
	root := t.TempDir()
	source := &fakeSource{panes: []tmux.Pane{pane("main", "@1", 0, "shell", 0, "%1")}}
	p := newTestPoller(root, source, &fakeSink{})

	p.Cycle(context.Background())
	before := treeState(t, root)
	p.Cycle(context.Background())
	after := treeState(t, root)

	assert.Equal(t, before, after)
}

func TestCycleDrainsInputIntoSink(t *testing.T) {
	root := t.TempDir()
	source := &fakeSource{panes: []tmux.Pane{pane("main", "@1", 0, "shell", 0, "%1")}}
	sink := &fakeSink{}
	p := newTestPoller(root, source, sink)

	p.Cycle(context.Background())
	writeFile(t, filepath.Join(root, "main", "0-shell", "0", InputFileName), "hello\n\n")
	p.Cycle(context.Background())

	assert.Equal(t, []string{"%1:text:hello", "%1:submit"}, sink.ops)
	assert.Empty(t, readInput(t, filepath.Join(root, "main", "0-shell", "0", InputFileName)))
}

func TestCycleFollowsWindowRename(t *testing.T) {
	root := t.TempDir()
	p0 := pane("main", "@1", 0, "shell", 0, "%1")
	source := &fakeSource{panes: []tmux.Pane{p0}}
	p := newTestPoller(root, source, &fakeSink{})

	p.Cycle(context.Background())
	writeFile(t, filepath.Join(root, "main", "0-shell", "0", InputFileName), "pend")

	renamed := p0
	renamed.WindowName = "vim"
	source.panes = []tmux.Pane{renamed}
	p.Cycle(context.Background())

	assert.False(t, dirExists(filepath.Join(root, "main", "0-shell")))
	assert.Equal(t, "pend", readInput(t, filepath.Join(root, "main", "0-vim", "0", InputFileName)))
}

func TestCycleSweepsDeadEntities(t *testing.T) {
	root := t.TempDir()
	source := &fakeSource{panes: []tmux.Pane{
		pane("main", "@1", 0, "shell", 0, "%1"),
		pane("gone", "@9", 0, "tmp", 0, "%9"),
	}}
	p := newTestPoller(root, source, &fakeSink{})
	p.Cycle(context.Background())
	require.True(t, dirExists(filepath.Join(root, "gone")))

	source.panes = []tmux.Pane{pane("main", "@1", 0, "shell", 0, "%1")}
	p.Cycle(context.Background())

	assert.False(t, dirExists(filepath.Join(root, "gone")))
	assert.True(t, dirExists(filepath.Join(root, "main", "0-shell", "0")))
}

func TestCycleEmptyUniverseClearsTree(t *testing.T) {
	root := t.TempDir()
	source := &fakeSource{panes: []tmux.Pane{pane("main", "@1", 0, "shell", 0, "%1")}}
	p := newTestPoller(root, source, &fakeSink{})
	p.Cycle(context.Background())

	source.panes = nil
	p.Cycle(context.Background())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	source := &fakeSource{}
	p := newTestPoller(root, source, &fakeSink{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
