package bridge

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/twistedxcom/tmuxbridge/internal/logging"
)

var inputLog = logging.ForComponent(logging.CompInput)

// InputProcessor drains per-pane input files into keystrokes. It owns the
// per-pane pending state explicitly (keyed by paneId) so lifecycle is a
// contract: state is created on first partial read, cleared on submission,
// and must be purged via Retain/Clear when a pane disappears — otherwise
// held text could be replayed into an unrelated pane that reuses the id.
type InputProcessor struct {
	policy BoundaryPolicy
	sink   KeySink
	states map[string]PendingState

	// OnRewrite, when set, is called immediately before the processor
	// rewrites an input file, so the input watcher can ignore the
	// resulting filesystem event instead of waking the poller on it.
	OnRewrite func(path string)
}

// NewInputProcessor creates a processor using the given boundary policy.
func NewInputProcessor(policy BoundaryPolicy, sink KeySink) *InputProcessor {
	return &InputProcessor{
		policy: policy,
		sink:   sink,
		states: make(map[string]PendingState),
	}
}

// Drain processes the current contents of a pane's input file: transmits
// complete units, updates pending state, and rewrites the file to hold only
// the unconsumed remainder. Reports whether it rewrote the file, so the
// caller can tell the input watcher to ignore the resulting event.
func (p *InputProcessor) Drain(ctx context.Context, paneID, inputPath string) (rewrote bool) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		if !os.IsNotExist(err) {
			inputLog.Warn("input_read_failed",
				slog.String("pane", paneID), slog.String("error", err.Error()))
		}
		return false
	}
	content := string(data)

	out := p.policy.Consume(content, p.states[paneID])

	for _, unit := range out.Submit {
		p.transmit(ctx, paneID, unit)
	}

	next := PendingState{Held: out.Held, LastRaw: out.LastRaw}
	if next == (PendingState{}) {
		delete(p.states, paneID)
	} else {
		p.states[paneID] = next
	}

	if out.Rewrite != content {
		if p.OnRewrite != nil {
			p.OnRewrite(inputPath)
		}
		// Truncate in place rather than rename: external writers may hold
		// an open fd on this file, and a rename would silently detach them.
		if err := os.WriteFile(inputPath, []byte(out.Rewrite), 0644); err != nil {
			inputLog.Warn("input_rewrite_failed",
				slog.String("pane", paneID), slog.String("error", err.Error()))
			return false
		}
		return true
	}
	return false
}

// transmit sends one unit line-by-line: interior line breaks become
// soft-newline keystrokes and the unit ends with a submitting Enter.
// Delivery failures are logged and otherwise ignored; the key sink is
// fail-soft by contract and the next cycle carries on.
func (p *InputProcessor) transmit(ctx context.Context, paneID, unit string) {
	lines := strings.Split(unit, "\n")
	ok := true
	for i, line := range lines {
		if line != "" && !p.sink.SendText(ctx, paneID, line) {
			ok = false
		}
		if i < len(lines)-1 && !p.sink.SendSoftBreak(ctx, paneID) {
			ok = false
		}
	}
	if !p.sink.SendSubmit(ctx, paneID) {
		ok = false
	}
	if !ok {
		inputLog.Warn("input_send_incomplete",
			slog.String("pane", paneID), slog.Int("lines", len(lines)))
		return
	}
	inputLog.Debug("input_submitted",
		slog.String("pane", paneID), slog.Int("lines", len(lines)))
}

// Clear forcibly returns a pane to the idle state, discarding any held
// text. Required when the pane is known to be gone.
func (p *InputProcessor) Clear(paneID string) {
	delete(p.states, paneID)
}

// Retain clears pending state for every pane not in the live set.
func (p *InputProcessor) Retain(livePanes map[string]bool) {
	for paneID := range p.states {
		if !livePanes[paneID] {
			delete(p.states, paneID)
		}
	}
}

// Pending reports whether a pane currently has buffered state. Used by
// tests to verify lifecycle.
func (p *InputProcessor) Pending(paneID string) bool {
	_, ok := p.states[paneID]
	return ok
}
