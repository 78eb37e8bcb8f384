// Package progress turns engine snapshots into per-page indicator fractions
// and draws them.
package progress

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"storyview/internal/playback"
)

// Position is where the indicator row sits.
type Position string

const (
	Top    Position = "top"
	Bottom Position = "bottom"
	Hidden Position = "none"
)

// Height is the thickness of the indicator bars.
type Height string

const (
	Small  Height = "small"
	Medium Height = "medium"
	Large  Height = "large"
)

// Pixels returns the bar thickness in device-independent pixels.
func (h Height) Pixels() float32 {
	switch h {
	case Medium:
		return 5
	case Large:
		return 8
	default:
		return 2
	}
}

// Options are the indicator presentation options.
type Options struct {
	Position Position
	Height   Height
	Color    string // #rrggbb
}

// DefaultOptions returns top, small, white indicators.
func DefaultOptions() Options {
	return Options{Position: Top, Height: Small, Color: "#ffffff"}
}

// Validate checks option values, filling blanks with defaults.
func (o *Options) Validate() error {
	def := DefaultOptions()
	if o.Position == "" {
		o.Position = def.Position
	}
	if o.Height == "" {
		o.Height = def.Height
	}
	if o.Color == "" {
		o.Color = def.Color
	}
	switch o.Position {
	case Top, Bottom, Hidden:
	default:
		return fmt.Errorf("invalid indicator position %q", o.Position)
	}
	switch o.Height {
	case Small, Medium, Large:
	default:
		return fmt.Errorf("invalid indicator height %q", o.Height)
	}
	if _, err := ParseColor(o.Color); err != nil {
		return err
	}
	return nil
}

// ParseColor parses "#rrggbb" or "#rgb".
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 3 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: wrong length", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 3 {
		r, g, b := uint8(v>>8&0xf), uint8(v>>4&0xf), uint8(v&0xf)
		return color.NRGBA{R: r * 17, G: g * 17, B: b * 17, A: 0xff}, nil
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Renderer draws an indicator row from a snapshot.
type Renderer interface {
	Render(snap playback.Snapshot)
}

// Fractions maps a snapshot to one fill value per page: shown pages are full,
// the active unshown page carries the live progress, everything else is empty.
func Fractions(snap playback.Snapshot) []float64 {
	out := make([]float64, len(snap.Entries))
	for i, e := range snap.Entries {
		switch {
		case e.Shown:
			out[i] = 1
		case i == snap.Index:
			out[i] = clamp(snap.Progress)
		}
	}
	return out
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
