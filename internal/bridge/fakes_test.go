package bridge

import (
	"context"
	"fmt"

	"github.com/twistedxcom/tmuxbridge/internal/tmux"
)

// fakeSink records keystroke operations as strings prefixed with the pane
// id: "<pane>:text:<s>", "<pane>:soft", "<pane>:submit", "<pane>:key:<k>".
type fakeSink struct {
	ops  []string
	fail bool
}

func (f *fakeSink) SendText(_ context.Context, paneID, text string) bool {
	if f.fail {
		return false
	}
	f.ops = append(f.ops, fmt.Sprintf("%s:text:%s", paneID, text))
	return true
}

func (f *fakeSink) SendSubmit(_ context.Context, paneID string) bool {
	if f.fail {
		return false
	}
	f.ops = append(f.ops, paneID+":submit")
	return true
}

func (f *fakeSink) SendSoftBreak(_ context.Context, paneID string) bool {
	if f.fail {
		return false
	}
	f.ops = append(f.ops, paneID+":soft")
	return true
}

func (f *fakeSink) SendNamedKey(_ context.Context, paneID, key string) bool {
	if f.fail {
		return false
	}
	f.ops = append(f.ops, paneID+":key:"+key)
	return true
}

// fakeSource serves a mutable pane universe.
type fakeSource struct {
	panes []tmux.Pane
}

func (f *fakeSource) ListPanes(context.Context) []tmux.Pane {
	return f.panes
}

// fakeCapturer returns fixed content for every pane.
type fakeCapturer struct {
	content string
}

func (f *fakeCapturer) CapturePane(_ context.Context, _ string, _ int) string {
	return f.content
}

func pane(session, windowID string, windowIndex int, windowName string, paneIndex int, paneID string) tmux.Pane {
	return tmux.Pane{
		Session:     session,
		WindowID:    windowID,
		WindowIndex: windowIndex,
		WindowName:  windowName,
		PaneIndex:   paneIndex,
		PaneID:      paneID,
		PaneTitle:   "title",
	}
}
