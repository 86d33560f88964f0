package tmux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePaneLine(t *testing.T) {
	p, ok := parsePaneLine("main\t@3\t0\tshell\t1\t%7\tvim — notes.md")
	assert.True(t, ok)
	assert.Equal(t, Pane{
		Session:     "main",
		WindowID:    "@3",
		WindowIndex: 0,
		WindowName:  "shell",
		PaneIndex:   1,
		PaneID:      "%7",
		PaneTitle:   "vim — notes.md",
	}, p)
}

func TestParsePaneLineEmptyTitle(t *testing.T) {
	p, ok := parsePaneLine("main\t@1\t0\tshell\t0\t%1\t")
	assert.True(t, ok)
	assert.Empty(t, p.PaneTitle)
}

func TestParsePaneLineTabInTitle(t *testing.T) {
	// pane_title is the last field; embedded tabs belong to it.
	p, ok := parsePaneLine("main\t@1\t0\tshell\t0\t%1\ta\tb")
	assert.True(t, ok)
	assert.Equal(t, "a\tb", p.PaneTitle)
}

func TestParsePaneLineRejectsBadRecords(t *testing.T) {
	cases := []string{
		"",
		"main\t@1\t0\tshell\t0\t%1", // too few fields
		"main\t@1\tx\tshell\t0\t%1\t",
		"main\t@1\t0\tshell\tx\t%1\t",
	}
	for _, line := range cases {
		_, ok := parsePaneLine(line)
		assert.False(t, ok, "line %q", line)
	}
}
