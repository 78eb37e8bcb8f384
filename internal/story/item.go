// Package story holds the story page model: items, their content kinds and
// the shown/unshown bookkeeping the playback engine runs on.
package story

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultPageDuration is used for text and image pages without an explicit duration.
	DefaultPageDuration = 3 * time.Second
	// DefaultVideoDuration is used for video pages without an explicit duration.
	DefaultVideoDuration = 10 * time.Second
)

var (
	// ErrNoItems is returned when a story is built from an empty item list.
	ErrNoItems = errors.New("story has no items")
	// ErrInvalidDuration is returned for items whose duration is not positive.
	ErrInvalidDuration = errors.New("story item duration must be positive")
)

// Item is one page of a story.
// Content is opaque to playback; Shown is only the initial state the caller
// supplies and is copied, never written back.
type Item struct {
	Content  any
	Duration time.Duration
	Shown    bool
}

// Text is a text card page.
type Text struct {
	Text       string
	Background string // #rrggbb
}

// Image is a still image page.
type Image struct {
	Source  string
	Caption string
}

// Video is a video page. Decoding and buffering are up to the host.
type Video struct {
	Source  string
	Caption string
}

// NewTextItem creates a text card item. A zero duration selects DefaultPageDuration.
func NewTextItem(text, background string, d time.Duration) Item {
	if d == 0 {
		d = DefaultPageDuration
	}
	return Item{Content: Text{Text: text, Background: background}, Duration: d}
}

// NewImageItem creates an image item. A zero duration selects DefaultPageDuration.
func NewImageItem(source, caption string, d time.Duration) Item {
	if d == 0 {
		d = DefaultPageDuration
	}
	return Item{Content: Image{Source: source, Caption: caption}, Duration: d}
}

// NewVideoItem creates a video item. A zero duration selects DefaultVideoDuration.
func NewVideoItem(source, caption string, d time.Duration) Item {
	if d == 0 {
		d = DefaultVideoDuration
	}
	return Item{Content: Video{Source: source, Caption: caption}, Duration: d}
}

// Describe returns a short human readable label for an item's content.
func Describe(it Item) string {
	switch c := it.Content.(type) {
	case Text:
		return fmt.Sprintf("text %q", c.Text)
	case Image:
		if c.Caption != "" {
			return fmt.Sprintf("image %s (%s)", c.Source, c.Caption)
		}
		return "image " + c.Source
	case Video:
		if c.Caption != "" {
			return fmt.Sprintf("video %s (%s)", c.Source, c.Caption)
		}
		return "video " + c.Source
	case nil:
		return "empty page"
	default:
		return fmt.Sprintf("%v", c)
	}
}

// Validate checks that items can be played.
func Validate(items []Item) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for i, it := range items {
		if it.Duration <= 0 {
			return fmt.Errorf("item %d: %w", i, ErrInvalidDuration)
		}
	}
	return nil
}
