package ui

import (
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"storyview/internal/progress"
	"storyview/internal/service"
	"storyview/internal/story"
)

const textPageSize float32 = 28

var (
	defaultPageBackground = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	errorPageBackground   = color.NRGBA{R: 0x40, G: 0x10, B: 0x10, A: 0xff}
)

// ContentView shows the content of one page: a text card, an image or a
// video placeholder, with an optional caption along the bottom.
type ContentView struct {
	widget.BaseWidget

	background *canvas.Rectangle
	textBox    *fyne.Container
	image      *canvas.Image
	video      *fyne.Container
	caption    *canvas.Text
	captionBg  *canvas.Rectangle
}

// NewContentView creates an empty ContentView.
func NewContentView() *ContentView {
	v := &ContentView{
		background: canvas.NewRectangle(defaultPageBackground),
		textBox:    container.NewVBox(),
		image:      &canvas.Image{FillMode: canvas.ImageFillContain},
		video: container.NewVBox(
			widget.NewIcon(theme.MediaVideoIcon()),
		),
		caption:   canvas.NewText("", color.White),
		captionBg: canvas.NewRectangle(color.NRGBA{A: 0x88}),
	}
	v.caption.Alignment = fyne.TextAlignCenter
	v.image.Hide()
	v.video.Hide()
	v.captionBg.Hide()
	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget.
func (v *ContentView) CreateRenderer() fyne.WidgetRenderer {
	captionRow := container.NewStack(v.captionBg, container.NewPadded(v.caption))
	return widget.NewSimpleRenderer(container.NewStack(
		v.background,
		v.image,
		container.NewCenter(v.textBox),
		container.NewCenter(v.video),
		container.NewBorder(nil, captionRow, nil, nil),
	))
}

// ShowPage replaces the displayed page. A non-nil err shows an error card in
// place of the content.
func (v *ContentView) ShowPage(it story.Item, page service.Page, err error) {
	v.image.Hide()
	v.video.Hide()
	v.textBox.Objects = nil
	v.background.FillColor = defaultPageBackground

	switch {
	case err != nil:
		v.background.FillColor = errorPageBackground
		v.setText("This page could not be loaded", color.White)
	default:
		switch c := it.Content.(type) {
		case story.Text:
			bg := defaultPageBackground
			if c.Background != "" {
				if parsed, perr := progress.ParseColor(c.Background); perr == nil {
					bg = parsed
				}
			}
			v.background.FillColor = bg
			v.setText(c.Text, contrastColor(bg))
		case story.Image:
			v.image.Image = page.Image
			v.image.Show()
			v.image.Refresh()
		case story.Video:
			v.video.Show()
		}
	}
	v.setCaption(page.Caption)
	v.background.Refresh()
	v.textBox.Refresh()
}

func (v *ContentView) setText(text string, c color.Color) {
	for _, line := range strings.Split(text, "\n") {
		t := canvas.NewText(line, c)
		t.TextSize = textPageSize
		t.Alignment = fyne.TextAlignCenter
		v.textBox.Add(t)
	}
}

func (v *ContentView) setCaption(s string) {
	v.caption.Text = s
	if s == "" {
		v.captionBg.Hide()
	} else {
		v.captionBg.Show()
	}
	v.caption.Refresh()
}

// Text returns the lines of the current text card.
func (v *ContentView) Text() []string {
	var lines []string
	for _, o := range v.textBox.Objects {
		if t, ok := o.(*canvas.Text); ok {
			lines = append(lines, t.Text)
		}
	}
	return lines
}

// contrastColor picks black or white text for a background.
func contrastColor(bg color.NRGBA) color.Color {
	lum := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if lum > 150 {
		return color.Black
	}
	return color.White
}
