package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// TerminalSink prints each published status as a short text block.
type TerminalSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminalSink creates a TerminalSink writing to w.
func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{w: w}
}

// Publish writes the status. Writes are serialized.
func (t *TerminalSink) Publish(_ context.Context, st Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := io.WriteString(t.w, Format(st))
	return err
}

// Format renders the status as plain text.
func Format(st Status) string {
	var b strings.Builder

	header := st.Headline
	if st.Theme != "" {
		header = fmt.Sprintf("[%s] %s", st.State, st.Headline)
	}
	b.WriteString(header)
	b.WriteByte('\n')

	if st.Location != "" {
		fmt.Fprintf(&b, "  Location: %s\n", st.Location)
	}
	if c := st.Conditions; c != nil {
		fmt.Fprintf(&b, "  Now: %s (%s)\n", c.Temperature, c.FeelsLike)
		fmt.Fprintf(&b, "  Condition: %s\n", c.Description)
		fmt.Fprintf(&b, "  %s\n", c.Humidity)
		fmt.Fprintf(&b, "  %s\n", c.Wind)
	}
	if st.Detail != "" {
		fmt.Fprintf(&b, "  %s\n", st.Detail)
	}
	if st.LastUpdated != "" {
		fmt.Fprintf(&b, "  Last updated: %s\n", st.LastUpdated)
	}
	return b.String()
}
