package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// storyTheme wraps a base theme, always uses its dark variant and tightens
// padding so pages get as much of the window as possible.
type storyTheme struct {
	fyne.Theme
}

var _ fyne.Theme = (*storyTheme)(nil)

// NewStoryTheme creates the viewer theme on top of base.
func NewStoryTheme(base fyne.Theme) fyne.Theme {
	return &storyTheme{Theme: base}
}

func (t *storyTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(name, theme.VariantDark)
}

func (t *storyTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding {
		return 2
	}
	return t.Theme.Size(name)
}
