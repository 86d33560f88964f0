package bridge

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/twistedxcom/tmuxbridge/internal/logging"
	"github.com/twistedxcom/tmuxbridge/internal/tmux"
)

var pollLog = logging.ForComponent(logging.CompPoll)

// Options configures a Poller.
type Options struct {
	// Root is the output directory for the mirrored tree.
	Root string

	// Interval is the poll interval.
	Interval time.Duration

	// Source enumerates live panes each cycle.
	Source Source

	// Snapshots writes per-pane content files.
	Snapshots *SnapshotWriter

	// Inputs drains per-pane input files.
	Inputs *InputProcessor

	// Watcher, when non-nil, wakes the loop early on input-file writes.
	Watcher *InputWatcher
}

// Poller runs the polling loop. One cycle runs to completion — enumerate,
// reconcile, snapshot and drain each pane, sweep, persist mappings — before
// the next begins; cancellation is honored between cycles, never mid-cycle,
// so the tree and mapping files are consistent at the point of
// interruption.
type Poller struct {
	opts       Options
	store      *MappingStore
	reconciler *Reconciler
	sweeper    *Sweeper
}

// NewPoller assembles the poller and its reconcile/sweep machinery over a
// shared mapping store.
func NewPoller(opts Options) *Poller {
	store := NewMappingStore(opts.Root)
	p := &Poller{
		opts:       opts,
		store:      store,
		reconciler: NewReconciler(opts.Root, store),
		sweeper:    NewSweeper(opts.Root, store),
	}
	if opts.Watcher != nil {
		opts.Inputs.OnRewrite = opts.Watcher.NoteSelfWrite
	}
	return p
}

// Run executes cycles until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	pollLog.Info("poller_started",
		slog.String("dir", p.opts.Root),
		slog.Duration("interval", p.opts.Interval))

	for {
		p.Cycle(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.opts.Interval):
		case <-p.wakeCh():
		}
	}
}

// wakeCh returns the watcher's wake channel, or nil (blocks forever in the
// select) when no watcher is configured.
func (p *Poller) wakeCh() <-chan struct{} {
	if p.opts.Watcher == nil {
		return nil
	}
	return p.opts.Watcher.Wake()
}

// Cycle performs one full pass. Per-pane failures are isolated: one pane's
// snapshot or drain going wrong never aborts the rest of the cycle.
func (p *Poller) Cycle(ctx context.Context) {
	panes := p.opts.Source.ListPanes(ctx)

	p.reconciler.Reconcile(panes)

	livePanes := make(map[string]bool, len(panes))
	paneDirs := make([]string, 0, len(panes))
	for _, pane := range panes {
		livePanes[pane.PaneID] = true
		paneDir := p.paneDir(pane)

		if err := p.opts.Snapshots.Write(ctx, pane, paneDir); err != nil {
			pollLog.Warn("snapshot_failed",
				slog.String("pane", pane.PaneID), slog.String("error", err.Error()))
			continue
		}
		paneDirs = append(paneDirs, paneDir)

		p.opts.Inputs.Drain(ctx, pane.PaneID, filepath.Join(paneDir, InputFileName))
	}

	p.sweeper.Sweep(panes)
	p.opts.Inputs.Retain(livePanes)
	p.store.SaveChanged()

	if p.opts.Watcher != nil {
		p.opts.Watcher.WatchDirs(paneDirs)
	}
}

// paneDir resolves a pane's directory through the session's mapping,
// falling back to the derived window name for a window the reconciler has
// not recorded yet.
func (p *Poller) paneDir(pane tmux.Pane) string {
	windowName, ok := p.store.Get(pane.Session)[pane.WindowID]
	if !ok {
		windowName = WindowDirName(pane.WindowIndex, pane.WindowName)
	}
	return filepath.Join(SessionDir(p.opts.Root, pane.Session), windowName, strconv.Itoa(pane.PaneIndex))
}
