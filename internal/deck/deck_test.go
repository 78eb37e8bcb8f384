package deck

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyview/internal/progress"
	"storyview/internal/story"
)

const sample = `
title: Morning
repeat: true
indicator:
  position: bottom
  height: medium
  color: "#ff0000"
items:
  - text: Hello
    background: "#ff8800"
    duration: 2s
  - image: beach.jpg
    caption: Beach
  - video: /clips/surf.mp4
    shown: true
`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(sample), "/decks")
	require.NoError(t, err)

	assert.Equal(t, "Morning", d.Title)
	assert.True(t, d.Repeat)
	assert.False(t, d.Inline)
	assert.Equal(t, progress.Options{Position: progress.Bottom, Height: progress.Medium, Color: "#ff0000"}, d.Indicator)

	require.Len(t, d.Items, 3)
	assert.Equal(t, story.Text{Text: "Hello", Background: "#ff8800"}, d.Items[0].Content)
	assert.Equal(t, 2*time.Second, d.Items[0].Duration)
	assert.Equal(t, story.Image{Source: filepath.Join("/decks", "beach.jpg"), Caption: "Beach"}, d.Items[1].Content)
	assert.Equal(t, story.DefaultPageDuration, d.Items[1].Duration)
	assert.Equal(t, story.Video{Source: "/clips/surf.mp4"}, d.Items[2].Content)
	assert.Equal(t, story.DefaultVideoDuration, d.Items[2].Duration)
	assert.True(t, d.Items[2].Shown)
	assert.Equal(t, 15*time.Second, d.TotalDuration())
}

func TestParseDefaultsIndicator(t *testing.T) {
	d, err := Parse([]byte("title: x\nitems:\n  - text: hi\n"), "")
	require.NoError(t, err)
	assert.Equal(t, progress.DefaultOptions(), d.Indicator)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no items", "title: empty\nitems: []\n", "no items"},
		{"two kinds", "items:\n  - text: a\n    image: b.jpg\n", "exactly one"},
		{"no kind", "items:\n  - caption: a\n", "exactly one"},
		{"bad duration", "items:\n  - text: a\n    duration: soon\n", "invalid duration"},
		{"negative duration", "items:\n  - text: a\n    duration: -1s\n", "positive"},
		{"bad background", "items:\n  - text: a\n    background: orange\n", "invalid color"},
		{"bad indicator", "indicator:\n  position: left\nitems:\n  - text: a\n", "invalid indicator position"},
		{"unknown field", "items:\n  - text: a\n    colour: red\n", "colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	d, err := Parse([]byte(sample), "")
	require.NoError(t, err)

	data, err := Marshal(d)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "10s", "default durations are omitted")

	back, err := Parse(data, "")
	require.NoError(t, err)
	assert.Equal(t, d, back)
}

func TestLoadResolvesRelativeMedia(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items:\n  - image: a.png\n"), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, story.Image{Source: filepath.Join(dir, "a.png")}, d.Items[0].Content)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
