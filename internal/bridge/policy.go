package bridge

import "strings"

// PendingState is what the input machine carries for one pane between
// polls. Held is text already drained out of the input file but not yet
// judged ready to send. LastRaw is the raw file content seen on the
// previous poll, used to detect that an external writer has stalled.
type PendingState struct {
	Held    string
	LastRaw string
}

// Outcome is a policy's decision for one poll of one input file.
type Outcome struct {
	// Submit holds complete units to transmit, in order. Units may contain
	// interior newlines; the transmitter renders those as soft breaks.
	Submit []string

	// Held and LastRaw become the pane's state for the next poll.
	Held    string
	LastRaw string

	// Rewrite is what the input file should contain afterwards.
	Rewrite string
}

// BoundaryPolicy decides, from the full current content of an input file
// and the pane's pending state, what constitutes a complete submission.
// Policies are pure; all filesystem and keystroke side effects live in
// InputProcessor.
type BoundaryPolicy interface {
	Name() string
	Consume(content string, st PendingState) Outcome
}

// PolicyByName returns the policy for a config value, or nil for an
// unknown name.
func PolicyByName(name string) BoundaryPolicy {
	switch name {
	case "blank-line":
		return BlankLinePolicy{}
	case "line":
		return LinePolicy{}
	default:
		return nil
	}
}

// BlankLinePolicy is the canonical protocol: a blank line (two consecutive
// newlines) ends a submittable unit, a single newline inside a unit is a
// soft line break, and trailing content with no blank line yet is held.
//
// A writer that stalls without ever producing a blank line is not left
// hanging: content that sits unchanged in the file for one full poll is
// treated as final. Completed lines (single trailing newline) are drained
// into Held and the file emptied, so the writer can keep appending from a
// clean file; an empty file with Held text means the writer finished, and
// Held is submitted.
type BlankLinePolicy struct{}

func (BlankLinePolicy) Name() string { return "blank-line" }

func (BlankLinePolicy) Consume(content string, st PendingState) Outcome {
	if content == "" {
		if st.Held != "" {
			return Outcome{Submit: []string{st.Held}}
		}
		return Outcome{}
	}

	segs := strings.Split(content, "\n\n")
	if len(segs) > 1 {
		units := segs[:len(segs)-1]
		var submit []string
		for i, unit := range units {
			if i == 0 {
				// Held text was waiting for this boundary.
				unit = joinUnit(st.Held, unit)
			}
			if strings.TrimSpace(unit) != "" {
				submit = append(submit, unit)
			}
		}
		rem := segs[len(segs)-1]
		return Outcome{Submit: submit, LastRaw: rem, Rewrite: rem}
	}

	// No boundary. Unchanged since last poll means the writer stalled;
	// treat the content as final rather than waiting forever.
	if content == st.LastRaw {
		unit := joinUnit(st.Held, strings.TrimRight(content, "\n"))
		return Outcome{Submit: []string{unit}}
	}

	if strings.HasSuffix(content, "\n") {
		held := joinUnit(st.Held, strings.TrimRight(content, "\n"))
		return Outcome{Held: held}
	}

	// Partial final line: leave it in the file, remember it for the
	// stall check.
	return Outcome{Held: st.Held, LastRaw: content, Rewrite: content}
}

// LinePolicy submits every completed line individually, with no soft-break
// concept. A trailing partial line follows the same stall rule as the
// blank-line policy.
type LinePolicy struct{}

func (LinePolicy) Name() string { return "line" }

func (LinePolicy) Consume(content string, st PendingState) Outcome {
	if content == "" {
		return Outcome{}
	}

	idx := strings.LastIndexByte(content, '\n')
	if idx >= 0 {
		var submit []string
		for _, line := range strings.Split(content[:idx], "\n") {
			if strings.TrimSpace(line) != "" {
				submit = append(submit, line)
			}
		}
		rem := content[idx+1:]
		return Outcome{Submit: submit, LastRaw: rem, Rewrite: rem}
	}

	if content == st.LastRaw {
		return Outcome{Submit: []string{content}}
	}
	return Outcome{LastRaw: content, Rewrite: content}
}

func joinUnit(held, unit string) string {
	switch {
	case held == "":
		return unit
	case unit == "":
		return held
	default:
		return held + "\n" + unit
	}
}
