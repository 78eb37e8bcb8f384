package story

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(shown ...bool) []Item {
	out := make([]Item, len(shown))
	for i, s := range shown {
		out[i] = Item{Content: i, Duration: time.Second, Shown: s}
	}
	return out
}

// assertPrefix checks that shown flags are a (possibly empty) prefix.
func assertPrefix(t *testing.T, s *Sequence) {
	t.Helper()
	seenUnshown := false
	for i := 0; i < s.Len(); i++ {
		if !s.Shown(i) {
			seenUnshown = true
			continue
		}
		assert.False(t, seenUnshown, "item %d is shown after an unshown item", i)
	}
}

func TestNewSequenceRejectsEmpty(t *testing.T) {
	_, err := NewSequence(nil)
	assert.True(t, errors.Is(err, ErrNoItems))
}

func TestNewSequenceRejectsBadDuration(t *testing.T) {
	_, err := NewSequence([]Item{{Duration: time.Second}, {Duration: 0}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.Contains(t, err.Error(), "item 1")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		shown   []bool
		want    []bool
		current int
	}{
		{"none shown", []bool{false, false, false}, []bool{false, false, false}, 0},
		{"prefix kept", []bool{true, true, false}, []bool{true, true, false}, 2},
		{"gap cleared", []bool{true, false, true, true}, []bool{true, false, false, false}, 1},
		{"leading unshown clears rest", []bool{false, true, true}, []bool{false, false, false}, 0},
		{"all shown resets", []bool{true, true}, []bool{false, false}, 0},
		{"single shown", []bool{true}, []bool{false}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSequence(items(tt.shown...))
			require.NoError(t, err)
			s.Normalize()
			for i, want := range tt.want {
				assert.Equal(t, want, s.Shown(i), "item %d", i)
			}
			assert.Equal(t, tt.current, s.Current())
			assertPrefix(t, s)
		})
	}
}

func TestSequenceDoesNotAliasCallerItems(t *testing.T) {
	in := items(false, false)
	s, err := NewSequence(in)
	require.NoError(t, err)
	s.Normalize()
	require.True(t, s.MarkShown(0))

	assert.False(t, in[0].Shown, "caller slice must not be mutated")
	assert.True(t, s.Item(0).Shown)
}

func TestMarkShownAndUnshownKeepPrefix(t *testing.T) {
	s, err := NewSequence(items(false, false, false))
	require.NoError(t, err)

	assert.False(t, s.MarkShown(1), "only the first unshown item may be marked")
	assert.True(t, s.MarkShown(0))
	assert.True(t, s.MarkShown(1))
	assert.Equal(t, 2, s.Current())
	assert.True(t, s.MarkShown(2))
	assert.True(t, s.AllShown())
	assert.Equal(t, 2, s.Current(), "current stays on the last item when all are shown")

	assert.False(t, s.MarkUnshown(0), "only the last shown item may be cleared")
	assert.True(t, s.MarkUnshown(2))
	assert.True(t, s.MarkUnshown(1))
	assert.Equal(t, 1, s.Current())
	assertPrefix(t, s)
}

func TestEntries(t *testing.T) {
	s, err := NewSequence(items(true, false))
	require.NoError(t, err)
	s.Normalize()
	e := s.Entries()
	require.Len(t, e, 2)
	assert.Equal(t, Entry{Duration: time.Second, Shown: true}, e[0])
	assert.Equal(t, Entry{Duration: time.Second, Shown: false}, e[1])
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, `text "hi"`, Describe(NewTextItem("hi", "", 0)))
	assert.Equal(t, "image a.jpg (beach)", Describe(NewImageItem("a.jpg", "beach", 0)))
	assert.Equal(t, "video b.mp4", Describe(NewVideoItem("b.mp4", "", 0)))
	assert.Equal(t, DefaultVideoDuration, NewVideoItem("b.mp4", "", 0).Duration)
	assert.Equal(t, DefaultPageDuration, NewTextItem("x", "", 0).Duration)
}
