package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

type shortcut struct {
	keys        string
	description string
}

var storyShortcuts = []shortcut{
	{"Ctrl+Q or Q", "Quit"},
	{"Space or P", "Pause / play"},
	{"Arrow Right", "Next page"},
	{"Arrow Left", "Previous page"},
	{"Page Down", "Next story"},
	{"Page Up", "Previous story"},
	{"Alt+Left", "Back to the last story played"},
	{"Alt+Right", "Forward again"},
	{"Esc or Arrow Down", "Close the story"},
}

func (a *App) buildKeyboardShortcuts() {
	a.UI.MainWin.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyQ,
		Modifier: a.UI.mainModKey,
	}, func(_ fyne.Shortcut) { a.app.Quit() })
	a.UI.MainWin.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyLeft,
		Modifier: fyne.KeyModifierAlt,
	}, func(_ fyne.Shortcut) { a.playHistory(a.history.Back) })
	a.UI.MainWin.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyRight,
		Modifier: fyne.KeyModifierAlt,
	}, func(_ fyne.Shortcut) { a.playHistory(a.history.Forward) })

	a.UI.MainWin.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		if key.Name == fyne.KeyEscape && len(a.UI.MainWin.Canvas().Overlays().List()) > 0 {
			a.UI.MainWin.Canvas().Overlays().Top().Hide()
			return
		}
		if key.Name == fyne.KeyQ {
			a.app.Quit()
			return
		}
		if a.player == nil {
			return
		}
		switch key.Name {
		case fyne.KeySpace, fyne.KeyP:
			a.togglePause()
		case fyne.KeyRight:
			a.player.Controller().Next()
		case fyne.KeyLeft:
			a.player.Controller().Previous()
		case fyne.KeyPageDown:
			a.playAdjacent(1)
		case fyne.KeyPageUp:
			a.playAdjacent(-1)
		case fyne.KeyEscape, fyne.KeyDown:
			a.closeStory()
		}
	})
}

func (a *App) showShortcuts() {
	win := a.app.NewWindow("Keyboard Shortcuts")
	table := widget.NewTable(
		func() (int, int) { return len(storyShortcuts) + 1, 2 },
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			label.TextStyle.Bold = id.Row == 0
			switch {
			case id.Row == 0 && id.Col == 0:
				label.SetText("Shortcut")
			case id.Row == 0:
				label.SetText("Action")
			case id.Col == 0:
				label.SetText(storyShortcuts[id.Row-1].keys)
			default:
				label.SetText(storyShortcuts[id.Row-1].description)
			}
		},
	)
	table.SetColumnWidth(0, 200)
	table.SetColumnWidth(1, 220)
	win.SetContent(table)
	win.Resize(fyne.NewSize(440, 320))
	win.Show()
}
