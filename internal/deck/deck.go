// Package deck reads and writes story decks: YAML documents listing the pages
// of a story together with its playback and indicator options.
package deck

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storyview/internal/progress"
	"storyview/internal/story"
)

// Deck is a parsed story deck.
type Deck struct {
	Title     string
	Repeat    bool
	Inline    bool
	Indicator progress.Options
	Items     []story.Item
}

type document struct {
	Title     string       `yaml:"title"`
	Repeat    bool         `yaml:"repeat,omitempty"`
	Inline    bool         `yaml:"inline,omitempty"`
	Indicator indicatorDoc `yaml:"indicator,omitempty"`
	Items     []itemDoc    `yaml:"items"`
}

type indicatorDoc struct {
	Position string `yaml:"position,omitempty"`
	Height   string `yaml:"height,omitempty"`
	Color    string `yaml:"color,omitempty"`
}

type itemDoc struct {
	Text       string `yaml:"text,omitempty"`
	Background string `yaml:"background,omitempty"`
	Image      string `yaml:"image,omitempty"`
	Video      string `yaml:"video,omitempty"`
	Caption    string `yaml:"caption,omitempty"`
	Duration   string `yaml:"duration,omitempty"`
	Shown      bool   `yaml:"shown,omitempty"`
}

// Parse decodes a deck document. Relative image and video paths are resolved
// against baseDir when it is not empty.
func Parse(data []byte, baseDir string) (*Deck, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode deck: %w", err)
	}

	d := &Deck{
		Title:  doc.Title,
		Repeat: doc.Repeat,
		Inline: doc.Inline,
		Indicator: progress.Options{
			Position: progress.Position(doc.Indicator.Position),
			Height:   progress.Height(doc.Indicator.Height),
			Color:    doc.Indicator.Color,
		},
	}
	if err := d.Indicator.Validate(); err != nil {
		return nil, fmt.Errorf("deck %q: %w", doc.Title, err)
	}

	for i, it := range doc.Items {
		item, err := it.toItem(baseDir)
		if err != nil {
			return nil, fmt.Errorf("deck %q item %d: %w", doc.Title, i+1, err)
		}
		d.Items = append(d.Items, item)
	}
	if err := story.Validate(d.Items); err != nil {
		return nil, fmt.Errorf("deck %q: %w", doc.Title, err)
	}
	return d, nil
}

func (it itemDoc) toItem(baseDir string) (story.Item, error) {
	kinds := 0
	for _, s := range []string{it.Text, it.Image, it.Video} {
		if s != "" {
			kinds++
		}
	}
	if kinds != 1 {
		return story.Item{}, fmt.Errorf("exactly one of text, image or video is required")
	}

	var d time.Duration
	if it.Duration != "" {
		var err error
		d, err = time.ParseDuration(it.Duration)
		if err != nil {
			return story.Item{}, fmt.Errorf("invalid duration %q: %w", it.Duration, err)
		}
		if d <= 0 {
			return story.Item{}, story.ErrInvalidDuration
		}
	}

	var item story.Item
	switch {
	case it.Text != "":
		if it.Background != "" {
			if _, err := progress.ParseColor(it.Background); err != nil {
				return story.Item{}, err
			}
		}
		item = story.NewTextItem(it.Text, it.Background, d)
	case it.Image != "":
		item = story.NewImageItem(resolve(baseDir, it.Image), it.Caption, d)
	default:
		item = story.NewVideoItem(resolve(baseDir, it.Video), it.Caption, d)
	}
	item.Shown = it.Shown
	return item, nil
}

func resolve(baseDir, p string) string {
	if baseDir == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(baseDir, p)
}

// Load reads and parses a deck file.
func Load(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck %s: %w", path, err)
	}
	return Parse(data, filepath.Dir(path))
}

// Marshal encodes a deck back to YAML. Durations equal to the content kind's
// default are omitted.
func Marshal(d *Deck) ([]byte, error) {
	doc := document{
		Title:  d.Title,
		Repeat: d.Repeat,
		Inline: d.Inline,
		Indicator: indicatorDoc{
			Position: string(d.Indicator.Position),
			Height:   string(d.Indicator.Height),
			Color:    d.Indicator.Color,
		},
	}
	for _, it := range d.Items {
		var item itemDoc
		def := story.DefaultPageDuration
		switch c := it.Content.(type) {
		case story.Text:
			item.Text, item.Background = c.Text, c.Background
		case story.Image:
			item.Image, item.Caption = c.Source, c.Caption
		case story.Video:
			item.Video, item.Caption = c.Source, c.Caption
			def = story.DefaultVideoDuration
		default:
			return nil, fmt.Errorf("unsupported page content %T", it.Content)
		}
		if it.Duration != def {
			item.Duration = it.Duration.String()
		}
		item.Shown = it.Shown
		doc.Items = append(doc.Items, item)
	}
	return yaml.Marshal(doc)
}

// TotalDuration sums the page durations.
func (d *Deck) TotalDuration() time.Duration {
	var total time.Duration
	for _, it := range d.Items {
		total += it.Duration
	}
	return total
}
