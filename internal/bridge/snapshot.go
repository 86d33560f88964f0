package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/twistedxcom/tmuxbridge/internal/fsutil"
	"github.com/twistedxcom/tmuxbridge/internal/logging"
	"github.com/twistedxcom/tmuxbridge/internal/tmux"
)

var snapshotLog = logging.ForComponent(logging.CompPoll)

// SnapshotWriter writes each pane's captured content to its content file
// and makes sure the pane's input file exists. The content file is
// replaced atomically so external readers never observe a half-written
// snapshot; the input file is never touched once it has content.
type SnapshotWriter struct {
	capturer   Capturer
	scrollback int
}

// NewSnapshotWriter creates a writer capturing scrollback lines of history.
func NewSnapshotWriter(capturer Capturer, scrollback int) *SnapshotWriter {
	return &SnapshotWriter{capturer: capturer, scrollback: scrollback}
}

// Write snapshots one pane into paneDir, creating the directory as needed.
func (w *SnapshotWriter) Write(ctx context.Context, p tmux.Pane, paneDir string) error {
	if err := os.MkdirAll(paneDir, 0755); err != nil {
		return fmt.Errorf("creating pane dir %s: %w", paneDir, err)
	}

	content := w.capturer.CapturePane(ctx, p.PaneID, w.scrollback)
	header := fmt.Sprintf("Session: %s\nWindow: %d (%s)\nPane: %d\nTitle: %s\n---\n",
		p.Session, p.WindowIndex, p.WindowName, p.PaneIndex, p.PaneTitle)

	contentPath := filepath.Join(paneDir, ContentFileName)
	if err := fsutil.AtomicWriteFile(contentPath, []byte(header+content), 0644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", contentPath, err)
	}

	// O_EXCL: create the input file empty only if it is not there at all.
	inputPath := filepath.Join(paneDir, InputFileName)
	f, err := os.OpenFile(inputPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err == nil {
		_ = f.Close()
	} else if !os.IsExist(err) {
		snapshotLog.Warn("input_create_failed",
			slog.String("path", inputPath), slog.String("error", err.Error()))
	}
	return nil
}
