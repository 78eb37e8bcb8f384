package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const aboutText = `Plays stories: timed pages of text, images and video.
Tap to skip, hold to pause, tap the left edge to go back,
swipe down to close and sideways to change story.`

type About struct {
	parent    fyne.Window
	container *fyne.Container
	d         dialog.Dialog
}

// NewAbout builds the about dialog. libraryDir is shown when set.
func NewAbout(parent fyne.Window, libraryDir string) *About {
	a := &About{parent: parent}

	icon := widget.NewIcon(theme.MediaPlayIcon())
	body := container.NewVBox(
		container.NewCenter(icon),
		widget.NewLabelWithStyle("storyview", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabel(aboutText),
	)
	if libraryDir != "" {
		body.Add(widget.NewLabel("Library: " + libraryDir))
	}

	ok := container.NewHBox(
		layout.NewSpacer(),
		widget.NewButton("OK", func() { a.Hide() }),
		layout.NewSpacer(),
	)
	a.container = container.NewBorder(nil, ok, nil, nil, body)
	return a
}

func (a *About) Hide() {
	if a.d != nil {
		a.d.Hide()
	}
}

func (a *About) Show() {
	a.d = dialog.NewCustomWithoutButtons("About", a.container, a.parent)
	a.d.Show()
}
