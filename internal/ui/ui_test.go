package ui

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyview/internal/clock"
	"storyview/internal/deck"
	"storyview/internal/gesture"
	"storyview/internal/library"
	"storyview/internal/playback"
	"storyview/internal/progress"
	"storyview/internal/service"
	"storyview/internal/story"
)

type swipes struct {
	vertical   []gesture.Direction
	horizontal []gesture.Direction
}

func newTestView(t *testing.T) (*StoryView, *service.Player, *clock.Manual, *swipes) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	clk := clock.NewManual(time.Unix(0, 0))
	d := &deck.Deck{
		Title:     "Trip",
		Indicator: progress.DefaultOptions(),
		Items: []story.Item{
			story.NewTextItem("one", "", time.Second),
			story.NewTextItem("two", "", time.Second),
			story.NewTextItem("three", "", time.Second),
		},
	}
	p, err := service.NewPlayer(service.PlayerConfig{Deck: d, Clock: clk})
	require.NoError(t, err)
	p.Start()
	t.Cleanup(func() { p.Stop() })

	got := &swipes{}
	interp := gesture.NewInterpreter(gesture.Config{
		Controller:                p.Controller(),
		State:                     p.Engine(),
		OnVerticalSwipeComplete:   func(dir gesture.Direction) { got.vertical = append(got.vertical, dir) },
		OnHorizontalSwipeComplete: func(dir gesture.Direction) { got.horizontal = append(got.horizontal, dir) },
	})
	indicator := NewIndicatorRow(d.Indicator, len(d.Items))
	v := NewStoryView(interp, NewContentView(), indicator, false)
	v.Resize(fyne.NewSize(400, 700))
	return v, p, clk, got
}

func mouseAt(x float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, 300)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func drag(dx, dy float32) *fyne.DragEvent {
	return &fyne.DragEvent{Dragged: fyne.NewDelta(dx, dy)}
}

func TestStoryViewTapSkipsAndLeftEdgeGoesBack(t *testing.T) {
	v, p, _, _ := newTestView(t)

	v.MouseDown(mouseAt(200))
	assert.Equal(t, playback.Holding, p.Engine().State())
	v.MouseUp(mouseAt(200))
	assert.Equal(t, 1, p.Engine().Index())
	assert.Equal(t, playback.Playing, p.Engine().State())

	v.MouseDown(mouseAt(10))
	assert.Equal(t, playback.Playing, p.Engine().State(), "left edge press does not pause")
	v.MouseUp(mouseAt(10))
	assert.Equal(t, 0, p.Engine().Index())
}

func TestStoryViewHoldResumes(t *testing.T) {
	v, p, clk, _ := newTestView(t)

	v.MouseDown(mouseAt(200))
	clk.Advance(600 * time.Millisecond)
	assert.Equal(t, playback.Paused, p.Engine().State())
	v.MouseUp(mouseAt(200))
	assert.Equal(t, 0, p.Engine().Index())
	assert.Equal(t, playback.Playing, p.Engine().State())
}

func TestStoryViewMouseOutCancelsPress(t *testing.T) {
	v, p, _, _ := newTestView(t)

	v.MouseDown(mouseAt(200))
	v.MouseOut()
	assert.Equal(t, playback.Playing, p.Engine().State())
	v.MouseUp(mouseAt(200))
	assert.Equal(t, 0, p.Engine().Index(), "release after leaving is not a tap")
}

func TestStoryViewSwipes(t *testing.T) {
	v, p, _, got := newTestView(t)

	v.MouseDown(mouseAt(200))
	v.Dragged(drag(2, 20))
	assert.Equal(t, playback.Holding, p.Engine().State(), "vertical drags pause")
	v.Dragged(drag(0, 15))
	v.DragEnd()
	v.MouseUp(mouseAt(200))
	assert.Equal(t, []gesture.Direction{gesture.Down}, got.vertical)
	assert.Equal(t, 0, p.Engine().Index(), "a drag is never a tap")
	assert.Equal(t, playback.Playing, p.Engine().State())

	v.MouseDown(mouseAt(200))
	v.Dragged(drag(0, -10))
	v.Dragged(drag(0, 10))
	v.DragEnd()
	assert.Len(t, got.vertical, 1, "reversed vertical drags are dropped")

	v.MouseDown(mouseAt(200))
	v.Dragged(drag(-30, 5))
	v.Dragged(drag(-10, 0))
	v.DragEnd()
	assert.Equal(t, []gesture.Direction{gesture.Left}, got.horizontal)
	assert.Equal(t, playback.Playing, p.Engine().State())
}

func TestIndicatorRow(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	row := NewIndicatorRow(progress.Options{Position: progress.Top, Height: progress.Medium, Color: "#ff0000"}, 3)
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, row.fill)
	assert.Equal(t, uint8(0x55), row.track.A)

	row.Render(playback.Snapshot{
		Index:    1,
		Progress: 0.5,
		Entries:  []story.Entry{{Shown: true}, {}, {}},
	})
	assert.Equal(t, []float64{1, 0.5, 0}, row.Fractions())

	row.Render(playback.Snapshot{Entries: []story.Entry{{Shown: true}, {Shown: true}, {Shown: true}}, Index: 2, Progress: 0.2})
	assert.Equal(t, []float64{1, 1, 1}, row.Fractions())

	bad := NewIndicatorRow(progress.Options{Color: "nope"}, 1)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, bad.fill)
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, float32(30), barWidth(100, 3, 5))
	assert.Equal(t, float32(100), barWidth(100, 1, 5))
	assert.Equal(t, float32(0), barWidth(100, 0, 5))
	assert.Equal(t, float32(0), barWidth(4, 3, 5))
}

func TestContentView(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	v := NewContentView()
	v.ShowPage(story.NewTextItem("hello\nthere", "#ffffff", 0), service.Page{}, nil)
	assert.Equal(t, []string{"hello", "there"}, v.Text())
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, v.background.FillColor)
	assert.False(t, v.image.Visible())

	v.ShowPage(story.NewImageItem("pic.png", "", 0), service.Page{Caption: "Beach"}, nil)
	assert.Empty(t, v.Text())
	assert.True(t, v.image.Visible())
	assert.Equal(t, "Beach", v.caption.Text)
	assert.True(t, v.captionBg.Visible())

	v.ShowPage(story.NewVideoItem("clip.mp4", "", 0), service.Page{}, errors.New("gone"))
	assert.Equal(t, []string{"This page could not be loaded"}, v.Text())
	assert.False(t, v.video.Visible())
	assert.False(t, v.captionBg.Visible())
}

func TestContrastColor(t *testing.T) {
	assert.Equal(t, color.Black, contrastColor(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}))
	assert.Equal(t, color.White, contrastColor(color.NRGBA{R: 0x10, G: 0x10, B: 0x40, A: 0xff}))
}

func TestLogUIManager(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	label := widget.NewLabel("")
	up := widget.NewButton("up", nil)
	down := widget.NewButton("down", nil)
	lm := NewLogUIManager(label, up, down, 2)

	lm.UpdateLogDisplay()
	assert.True(t, up.Disabled())
	assert.Equal(t, "", lm.Current())

	lm.AddLogMessage("one")
	lm.AddLogMessage("two")
	lm.AddLogMessage("three")
	assert.Equal(t, "[2/2] three", label.Text)
	assert.False(t, up.Disabled())
	assert.True(t, down.Disabled())

	lm.ShowPreviousLogMessage()
	assert.Equal(t, "two", lm.Current())
	lm.ShowPreviousLogMessage()
	assert.Equal(t, "two", lm.Current(), "oldest message was trimmed")
	lm.ShowNextLogMessage()
	assert.Equal(t, "three", lm.Current())
}

func TestFilterDecks(t *testing.T) {
	decks := []library.DeckInfo{
		{Name: "trip", Title: "Summer Trip", Tags: []string{"travel"}},
		{Name: "cats", Title: "Cats"},
	}
	assert.Len(t, filterDecks(decks, ""), 2)
	assert.Equal(t, "trip", filterDecks(decks, "SUMMER")[0].Name)
	assert.Equal(t, "trip", filterDecks(decks, "trav")[0].Name)
	assert.Empty(t, filterDecks(decks, "dogs"))

	assert.Equal(t, "Summer Trip  ·  0 pages, 0s  [travel]", deckLabel(decks[0]))
}
