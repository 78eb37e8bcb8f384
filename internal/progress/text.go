package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"storyview/internal/playback"
)

// TextRenderer draws the indicator row as one line of text per render:
//
//	[##########][#####     ][          ]  2/3 playing
type TextRenderer struct {
	mu    sync.Mutex
	w     io.Writer
	width int
	last  string
}

// NewTextRenderer writes bars of width cells each to w.
func NewTextRenderer(w io.Writer, width int) *TextRenderer {
	if width <= 0 {
		width = 10
	}
	return &TextRenderer{w: w, width: width}
}

// Render writes the row if it differs from the previous one.
func (r *TextRenderer) Render(snap playback.Snapshot) {
	line := r.Line(snap)
	r.mu.Lock()
	defer r.mu.Unlock()
	if line == r.last {
		return
	}
	r.last = line
	fmt.Fprintln(r.w, line)
}

// Line formats a snapshot without writing it.
func (r *TextRenderer) Line(snap playback.Snapshot) string {
	var b strings.Builder
	for _, f := range Fractions(snap) {
		filled := int(f*float64(r.width) + 1e-9)
		b.WriteByte('[')
		b.WriteString(strings.Repeat("#", filled))
		b.WriteString(strings.Repeat(" ", r.width-filled))
		b.WriteByte(']')
	}
	fmt.Fprintf(&b, " %d/%d %s", snap.Index+1, len(snap.Entries), snap.State)
	return b.String()
}
