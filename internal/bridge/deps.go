package bridge

import (
	"context"

	"github.com/twistedxcom/tmuxbridge/internal/tmux"
)

// Source enumerates the live pane universe. Implemented by tmux.Client.
// Must fail soft: an unreachable terminal server yields an empty result,
// never an error that stops the poll loop.
type Source interface {
	ListPanes(ctx context.Context) []tmux.Pane
}

// Capturer captures a pane's current content plus scrollback.
// Implemented by tmux.Client. Returns "" on failure.
type Capturer interface {
	CapturePane(ctx context.Context, paneID string, scrollback int) string
}

// KeySink injects keystrokes into a pane. Implemented by tmux.Sender.
// All methods report delivery as a bool; failures are retried implicitly by
// the next poll cycle, never propagated.
type KeySink interface {
	SendText(ctx context.Context, paneID, text string) bool
	SendSubmit(ctx context.Context, paneID string) bool
	SendSoftBreak(ctx context.Context, paneID string) bool
	SendNamedKey(ctx context.Context, paneID, key string) bool
}
