// Package tmux shells out to the tmux client: enumerating live panes,
// capturing pane content, and injecting keystrokes. Every call here is
// fail-soft — an unreachable tmux server degrades to empty results or a
// false return, never an error that aborts the poll loop.
package tmux

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/twistedxcom/tmuxbridge/internal/logging"
)

var tmuxLog = logging.ForComponent(logging.CompTmux)

// commandTimeout bounds any single tmux subprocess. A wedged tmux server
// must not stall the poll loop indefinitely.
const commandTimeout = 3 * time.Second

// listPanesFormat is the -F format string for enumeration. Fields are
// tab-separated; pane_title goes last because it is the only field that can
// legitimately be empty or contain most characters.
const listPanesFormat = "#{session_name}\t#{window_id}\t#{window_index}\t#{window_name}\t#{pane_index}\t#{pane_id}\t#{pane_title}"

// Pane describes one live pane as reported by a single enumeration. It is
// recomputed fresh every poll cycle and never cached.
//
// WindowID and PaneID are stable for the lifetime of the entity;
// WindowIndex, WindowName and PaneTitle can change at any time.
type Pane struct {
	Session     string
	WindowID    string
	WindowIndex int
	WindowName  string
	PaneIndex   int
	PaneID      string
	PaneTitle   string
}

// Client runs tmux subprocesses. The zero value is not usable; use New.
type Client struct {
	// bin is the tmux executable, overridable for tests.
	bin string
}

// New returns a Client using the tmux binary from PATH.
func New() *Client {
	return &Client{bin: "tmux"}
}

// IsAvailable checks that the tmux binary runs at all.
func (c *Client) IsAvailable() error {
	out, err := exec.Command(c.bin, "-V").CombinedOutput()
	if err != nil {
		return fmt.Errorf("tmux not found or not working: %w (output: %s)", err, string(out))
	}
	return nil
}

// ListPanes enumerates every pane across all sessions. Returns an empty
// slice when the server is unreachable — the caller treats that as "no live
// entities" and sweeps accordingly on the next successful poll.
func (c *Client) ListPanes(ctx context.Context) []Pane {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin, "list-panes", "-a", "-F", listPanesFormat)
	out, err := cmd.Output()
	if err != nil {
		tmuxLog.Debug("list_panes_failed", slog.String("error", err.Error()))
		return nil
	}

	var panes []Pane
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		p, ok := parsePaneLine(line)
		if !ok {
			tmuxLog.Warn("list_panes_bad_line", slog.String("line", line))
			continue
		}
		panes = append(panes, p)
	}
	return panes
}

// parsePaneLine parses one tab-separated record from list-panes output.
func parsePaneLine(line string) (Pane, bool) {
	parts := strings.SplitN(line, "\t", 7)
	if len(parts) < 7 {
		return Pane{}, false
	}
	windowIndex, err := strconv.Atoi(parts[2])
	if err != nil {
		return Pane{}, false
	}
	paneIndex, err := strconv.Atoi(parts[4])
	if err != nil {
		return Pane{}, false
	}
	return Pane{
		Session:     parts[0],
		WindowID:    parts[1],
		WindowIndex: windowIndex,
		WindowName:  parts[3],
		PaneIndex:   paneIndex,
		PaneID:      parts[5],
		PaneTitle:   parts[6],
	}, true
}

// CapturePane captures a pane's content including scrollback lines of
// history. -J joins wrapped lines so the snapshot is stable across terminal
// resizes. Returns "" on failure.
func (c *Client) CapturePane(ctx context.Context, paneID string, scrollback int) string {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin, "capture-pane", "-p", "-J",
		"-t", paneID, "-S", fmt.Sprintf("-%d", scrollback))
	out, err := cmd.Output()
	if err != nil {
		tmuxLog.Debug("capture_pane_failed",
			slog.String("pane", paneID), slog.String("error", err.Error()))
		return ""
	}
	return string(out)
}
