package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"storyview/internal/playback"
	"storyview/internal/progress"
)

// indicatorGap is the space between two bars.
const indicatorGap float32 = 4

// IndicatorRow draws one progress bar per page.
type IndicatorRow struct {
	widget.BaseWidget

	opts      progress.Options
	fill      color.NRGBA
	track     color.NRGBA
	fractions []float64
}

var _ progress.Renderer = (*IndicatorRow)(nil)

// NewIndicatorRow creates a row of empty bars. An unparsable color falls back
// to white.
func NewIndicatorRow(opts progress.Options, pages int) *IndicatorRow {
	fill, err := progress.ParseColor(opts.Color)
	if err != nil {
		fill = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	track := fill
	track.A = 0x55
	r := &IndicatorRow{
		opts:      opts,
		fill:      fill,
		track:     track,
		fractions: make([]float64, pages),
	}
	r.ExtendBaseWidget(r)
	return r
}

// Render implements progress.Renderer. It must be called on the UI goroutine.
func (r *IndicatorRow) Render(snap playback.Snapshot) {
	r.fractions = progress.Fractions(snap)
	r.Refresh()
}

// Fractions returns the fill value of every bar.
func (r *IndicatorRow) Fractions() []float64 {
	out := make([]float64, len(r.fractions))
	copy(out, r.fractions)
	return out
}

// CreateRenderer implements fyne.Widget.
func (r *IndicatorRow) CreateRenderer() fyne.WidgetRenderer {
	ir := &indicatorRenderer{row: r}
	ir.rebuild()
	return ir
}

// barWidth splits total across n bars separated by gap.
func barWidth(total float32, n int, gap float32) float32 {
	if n <= 0 {
		return 0
	}
	w := (total - gap*float32(n-1)) / float32(n)
	if w < 0 {
		return 0
	}
	return w
}

type indicatorRenderer struct {
	row    *IndicatorRow
	tracks []*canvas.Rectangle
	fills  []*canvas.Rectangle
}

func (ir *indicatorRenderer) rebuild() {
	n := len(ir.row.fractions)
	ir.tracks = make([]*canvas.Rectangle, n)
	ir.fills = make([]*canvas.Rectangle, n)
	for i := 0; i < n; i++ {
		ir.tracks[i] = canvas.NewRectangle(ir.row.track)
		ir.fills[i] = canvas.NewRectangle(ir.row.fill)
		ir.tracks[i].CornerRadius = 1
		ir.fills[i].CornerRadius = 1
	}
}

func (ir *indicatorRenderer) Layout(size fyne.Size) {
	h := ir.row.opts.Height.Pixels()
	w := barWidth(size.Width, len(ir.tracks), indicatorGap)
	y := (size.Height - h) / 2
	for i := range ir.tracks {
		x := float32(i) * (w + indicatorGap)
		ir.tracks[i].Move(fyne.NewPos(x, y))
		ir.tracks[i].Resize(fyne.NewSize(w, h))
		ir.fills[i].Move(fyne.NewPos(x, y))
		ir.fills[i].Resize(fyne.NewSize(w*float32(ir.row.fractions[i]), h))
	}
}

func (ir *indicatorRenderer) MinSize() fyne.Size {
	h := ir.row.opts.Height.Pixels() + 2*indicatorGap
	n := float32(len(ir.tracks))
	if n == 0 {
		return fyne.NewSize(0, h)
	}
	return fyne.NewSize(n*4+indicatorGap*(n-1), h)
}

func (ir *indicatorRenderer) Refresh() {
	if len(ir.tracks) != len(ir.row.fractions) {
		ir.rebuild()
	}
	ir.Layout(ir.row.Size())
	for i := range ir.fills {
		canvas.Refresh(ir.fills[i])
	}
}

func (ir *indicatorRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, 2*len(ir.tracks))
	for _, t := range ir.tracks {
		objs = append(objs, t)
	}
	for _, f := range ir.fills {
		objs = append(objs, f)
	}
	return objs
}

func (ir *indicatorRenderer) Destroy() {}
