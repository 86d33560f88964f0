package tmux

import (
	"context"
	"log/slog"
	"os/exec"

	"golang.org/x/time/rate"
)

// Sender injects keystrokes into panes. All methods report success as a
// bool and never surface errors into the poll loop; a vanished pane or a
// dead server just means the keys were not delivered this cycle.
type Sender struct {
	client  *Client
	limiter *rate.Limiter
}

// NewSender wraps a Client with a key-injection throttle. tmux's server
// processes send-keys serially; firing a long drained message at it
// unthrottled can overflow the client buffer and drop keys, so injection is
// capped at sendsPerSecond calls with a small burst.
func NewSender(client *Client) *Sender {
	const sendsPerSecond = 50
	const burst = 10
	return &Sender{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(sendsPerSecond), burst),
	}
}

// SendText sends literal text to a pane. The -l flag makes tmux treat the
// string as literal characters rather than key names, and -- guards
// against text beginning with a dash.
func (s *Sender) SendText(ctx context.Context, paneID, text string) bool {
	return s.run(ctx, "send_text", paneID, "send-keys", "-l", "-t", paneID, "--", text)
}

// SendSubmit sends Enter, submitting whatever the pane has buffered.
func (s *Sender) SendSubmit(ctx context.Context, paneID string) bool {
	return s.run(ctx, "send_submit", paneID, "send-keys", "-t", paneID, "Enter")
}

// SendSoftBreak sends Shift+Enter: a line break inside the pane's input
// that does not submit it.
func (s *Sender) SendSoftBreak(ctx context.Context, paneID string) bool {
	return s.run(ctx, "send_soft_break", paneID, "send-keys", "-t", paneID, "S-Enter")
}

// SendNamedKey sends an arbitrary tmux key by name (e.g. C-c, Escape, Up).
func (s *Sender) SendNamedKey(ctx context.Context, paneID, key string) bool {
	return s.run(ctx, "send_named_key", paneID, "send-keys", "-t", paneID, key)
}

func (s *Sender) run(ctx context.Context, op, paneID string, args ...string) bool {
	if err := s.limiter.Wait(ctx); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, s.client.bin, args...).Run(); err != nil {
		tmuxLog.Debug(op+"_failed",
			slog.String("pane", paneID), slog.String("error", err.Error()))
		return false
	}
	return true
}
