package ui

import (
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

func (a *App) buildStatusBar() fyne.CanvasObject {
	a.UI.statusLabel = widget.NewLabel("")
	a.UI.statusLogLabel = widget.NewLabel("")
	a.UI.statusLogLabel.Truncation = fyne.TextTruncateEllipsis
	a.UI.statusLogUpBtn = widget.NewButtonWithIcon("", theme.MoveUpIcon(), nil)
	a.UI.statusLogDownBtn = widget.NewButtonWithIcon("", theme.MoveDownIcon(), nil)
	a.logUIManager = NewLogUIManager(a.UI.statusLogLabel, a.UI.statusLogUpBtn, a.UI.statusLogDownBtn, DefaultMaxLogMessages)
	a.UI.statusLogUpBtn.OnTapped = a.logUIManager.ShowPreviousLogMessage
	a.UI.statusLogDownBtn.OnTapped = a.logUIManager.ShowNextLogMessage
	a.logUIManager.UpdateLogDisplay()

	return container.NewVBox(
		widget.NewSeparator(),
		container.NewBorder(nil, nil,
			a.UI.statusLabel,
			container.NewHBox(a.UI.statusLogUpBtn, a.UI.statusLogDownBtn),
			a.UI.statusLogLabel,
		),
	)
}

func (a *App) buildMainMenu() *fyne.MainMenu {
	return fyne.NewMainMenu(
		fyne.NewMenu("File",
			fyne.NewMenuItem("Import Deck...", a.importDeckDialog),
			fyne.NewMenuItem("Import Folder...", a.importFolderDialog),
			fyne.NewMenuItem("Library", a.closeStory),
		),
		fyne.NewMenu("Playback",
			fyne.NewMenuItem("Pause / Play", a.togglePause),
			fyne.NewMenuItem("Next Page", func() {
				if a.player != nil {
					a.player.Controller().Next()
				}
			}),
			fyne.NewMenuItem("Previous Page", func() {
				if a.player != nil {
					a.player.Controller().Previous()
				}
			}),
			fyne.NewMenuItem("Next Story", func() { a.playAdjacent(1) }),
			fyne.NewMenuItem("Previous Story", func() { a.playAdjacent(-1) }),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Back", func() { a.playHistory(a.history.Back) }),
			fyne.NewMenuItem("Forward", func() { a.playHistory(a.history.Forward) }),
		),
		fyne.NewMenu("Help",
			fyne.NewMenuItem("Keyboard Shortcuts", a.showShortcuts),
			fyne.NewMenuItem("About", func() { NewAbout(a.UI.MainWin, a.cfg.LibraryDir).Show() }),
		),
	)
}

func (a *App) buildMainUI() fyne.CanvasObject {
	a.UI.MainWin.SetMaster()
	// set main mod key to super on darwin hosts, else set it to ctrl
	if runtime.GOOS == "darwin" {
		a.UI.mainModKey = fyne.KeyModifierSuper
	} else {
		a.UI.mainModKey = fyne.KeyModifierControl
	}
	status := a.buildStatusBar()
	a.UI.MainWin.SetMainMenu(a.buildMainMenu())
	a.buildKeyboardShortcuts()

	a.UI.decksView = a.buildDecksView()
	a.UI.storyHost = container.NewStack()
	a.UI.storyHost.Hide()
	a.UI.contentStack = container.NewStack(a.UI.decksView, a.UI.storyHost)

	return container.NewBorder(
		nil,
		container.NewVBox(layout.NewSpacer(), status),
		nil,
		nil,
		a.UI.contentStack,
	)
}
