package story

import "time"

// Entry is a renderer-facing view of one item.
type Entry struct {
	Duration time.Duration `json:"duration"`
	Shown    bool          `json:"shown"`
}

// Sequence is an ordered, fixed list of items plus the shown flags for the
// current playback pass. Shown flags live here, keyed by index, so the same
// caller slice can be reused across mounts.
//
// Shown items always form a prefix. firstUnshown caches the index of the
// first unshown item (Len() when everything is shown).
type Sequence struct {
	items        []Item
	shown        []bool
	firstUnshown int
}

// NewSequence copies items into a new Sequence.
func NewSequence(items []Item) (*Sequence, error) {
	if err := Validate(items); err != nil {
		return nil, err
	}
	s := &Sequence{
		items: make([]Item, len(items)),
		shown: make([]bool, len(items)),
	}
	copy(s.items, items)
	for i, it := range items {
		s.shown[i] = it.Shown
		s.items[i].Shown = false
	}
	s.recompute()
	return s, nil
}

// recompute rebuilds the cached index with a full scan. Used only when the
// flags came from outside (construction).
func (s *Sequence) recompute() {
	s.firstUnshown = len(s.shown)
	for i, shown := range s.shown {
		if !shown {
			s.firstUnshown = i
			return
		}
	}
}

// Normalize enforces the prefix invariant: every item from the first unshown
// one onward becomes unshown, and if all items are shown they are all reset.
func (s *Sequence) Normalize() {
	if s.firstUnshown == len(s.shown) {
		s.Reset()
		return
	}
	for i := s.firstUnshown; i < len(s.shown); i++ {
		s.shown[i] = false
	}
}

// Reset marks every item unshown.
func (s *Sequence) Reset() {
	for i := range s.shown {
		s.shown[i] = false
	}
	s.firstUnshown = 0
}

// Len returns the number of items.
func (s *Sequence) Len() int { return len(s.items) }

// Item returns the item at index i.
func (s *Sequence) Item(i int) Item {
	it := s.items[i]
	it.Shown = s.shown[i]
	return it
}

// Shown reports whether item i was shown in this pass.
func (s *Sequence) Shown(i int) bool { return s.shown[i] }

// AllShown reports whether every item is shown.
func (s *Sequence) AllShown() bool { return s.firstUnshown == len(s.shown) }

// Current returns the first unshown index, or the last index when all are shown.
func (s *Sequence) Current() int {
	if s.firstUnshown == len(s.shown) {
		return len(s.shown) - 1
	}
	return s.firstUnshown
}

// IsLast reports whether i is the final index.
func (s *Sequence) IsLast(i int) bool { return i == len(s.items)-1 }

// MarkShown flags item i as shown. Only the first unshown item may be marked;
// anything else would break the prefix invariant and is ignored.
func (s *Sequence) MarkShown(i int) bool {
	if i != s.firstUnshown {
		return false
	}
	s.shown[i] = true
	s.firstUnshown++
	return true
}

// MarkUnshown clears the shown flag of item i. Only the last shown item may be
// cleared.
func (s *Sequence) MarkUnshown(i int) bool {
	if i != s.firstUnshown-1 {
		return false
	}
	s.shown[i] = false
	s.firstUnshown = i
	return true
}

// Entries returns renderer snapshots of every item.
func (s *Sequence) Entries() []Entry {
	out := make([]Entry, len(s.items))
	for i, it := range s.items {
		out[i] = Entry{Duration: it.Duration, Shown: s.shown[i]}
	}
	return out
}
