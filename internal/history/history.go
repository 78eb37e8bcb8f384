// Package history keeps the back/forward trail of decks the viewer has played.
package history

// History is a bounded back/forward stack of deck names.
type History struct {
	stack    []string
	current  int
	capacity int
}

// New creates a History holding at most capacity entries.
// A capacity of 0 or less disables it.
func New(capacity int) *History {
	if capacity < 0 {
		capacity = 0
	}
	return &History{
		stack:    make([]string, 0, capacity),
		current:  -1,
		capacity: capacity,
	}
}

// Visit records that name is now playing. Visiting after going back drops
// the forward entries; visiting the current deck again is a no-op.
func (h *History) Visit(name string) {
	if h.capacity == 0 || name == "" {
		return
	}
	if h.current >= 0 && h.current < len(h.stack)-1 {
		h.stack = h.stack[:h.current+1]
	}
	if h.current >= 0 && h.stack[h.current] == name {
		return
	}
	h.stack = append(h.stack, name)
	if len(h.stack) > h.capacity {
		h.stack = h.stack[len(h.stack)-h.capacity:]
	}
	h.current = len(h.stack) - 1
}

// Back steps to the previously played deck.
func (h *History) Back() (string, bool) {
	if h.current <= 0 {
		return "", false
	}
	h.current--
	return h.stack[h.current], true
}

// Forward steps to the deck played after the current one.
func (h *History) Forward() (string, bool) {
	if h.current < 0 || h.current >= len(h.stack)-1 {
		return "", false
	}
	h.current++
	return h.stack[h.current], true
}

// Current returns the deck the history points at.
func (h *History) Current() (string, bool) {
	if h.current < 0 {
		return "", false
	}
	return h.stack[h.current], true
}

// Remove drops every entry for name, e.g. after the deck left the library.
// When the current entry goes, the history points at the one before it.
func (h *History) Remove(name string) {
	if len(h.stack) == 0 {
		return
	}
	kept := make([]string, 0, len(h.stack))
	before := 0
	removedCurrent := false
	for i, n := range h.stack {
		if n != name {
			kept = append(kept, n)
			continue
		}
		switch {
		case i < h.current:
			before++
		case i == h.current:
			removedCurrent = true
		}
	}
	if len(kept) == len(h.stack) {
		return
	}
	h.stack = kept
	if len(kept) == 0 {
		h.current = -1
		return
	}

	idx := h.current - before
	if removedCurrent {
		idx--
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(kept)-1 {
		idx = len(kept) - 1
	}
	h.current = idx
}

// Clear forgets everything.
func (h *History) Clear() {
	h.stack = h.stack[:0]
	h.current = -1
}
