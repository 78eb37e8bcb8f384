// Package ui is the desktop story viewer.
package ui

import (
	"flag"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"storyview/internal/config"
	"storyview/internal/deck"
	"storyview/internal/gesture"
	"storyview/internal/history"
	"storyview/internal/library"
	"storyview/internal/playback"
	"storyview/internal/progress"
	"storyview/internal/scan"
	"storyview/internal/service"
	"storyview/internal/story"
)

var (
	deckNameFlag = flag.String("name", "", "Play a deck from the library.")
	dirFlag      = flag.String("dir", "", "Play the media found in a directory.")
	shuffleFlag  = flag.Bool("shuffle", false, "Shuffle pages built with -dir.")
	repeatFlag   = flag.Bool("repeat", false, "Start over after the last page.")
	dbPathFlag   = flag.String("dbpath", "", "Directory holding the deck library.")
)

// App is the viewer with its window, library and the story being played.
type App struct {
	app fyne.App
	UI  UI
	cfg config.Config

	lib          *library.Library
	logUIManager *LogUIManager
	Service      *service.Service
	ImageService *service.ImageService

	player    *service.Player
	stopWatch func()
	stopped   chan struct{}

	// library names in list order, for swiping between decks
	deckOrder []string
	// library decks in the order they were played
	history *history.History
	// true when started on a single deck rather than the library
	single bool
}

// UI holds the widgets the App updates.
type UI struct {
	MainWin    fyne.Window
	mainModKey fyne.KeyModifier

	contentStack *fyne.Container
	decksView    fyne.CanvasObject
	refreshDecks func()
	storyHost    *fyne.Container

	statusLabel      *widget.Label
	statusLogLabel   *widget.Label
	statusLogUpBtn   *widget.Button
	statusLogDownBtn *widget.Button

	content   *ContentView
	indicator *IndicatorRow
	view      *StoryView
}

// addLogMessage shows a message in the status bar. Safe from any goroutine.
func (a *App) addLogMessage(message string) {
	log.Printf("[storyview] %s", message)
	fyne.Do(func() {
		if a.logUIManager != nil {
			a.logUIManager.AddLogMessage(message)
		}
	})
}

// loadStartDeck picks the deck named on the command line, if any.
func (a *App) loadStartDeck() (*deck.Deck, string, error) {
	switch {
	case *deckNameFlag != "":
		d, err := a.Service.LoadDeck(*deckNameFlag)
		return d, *deckNameFlag, err
	case *dirFlag != "":
		d, err := a.Service.DeckFromDirectory(*dirFlag, service.DirOptions{Shuffle: *shuffleFlag})
		return d, "", err
	case flag.NArg() > 0:
		d, err := deck.Load(flag.Arg(0))
		return d, "", err
	}
	return nil, "", nil
}

// playDeck stops whatever is playing and starts d. name is the library name,
// empty for decks that are not stored.
func (a *App) playDeck(d *deck.Deck, name string) error {
	a.stopStory()
	if *repeatFlag || a.cfg.Repeat {
		d.Repeat = true
	}

	content := NewContentView()
	var player *service.Player
	player, err := service.NewPlayer(service.PlayerConfig{
		Name:          name,
		Deck:          d,
		FrameInterval: a.cfg.FrameInterval,
		Logger:        a.addLogMessage,
		Loader: func(it story.Item) error {
			page, err := a.ImageService.LoadPage(it)
			fyne.Do(func() {
				if cur, _ := player.Engine().CurrentItem(); story.Describe(cur) != story.Describe(it) {
					return
				}
				content.ShowPage(it, page, err)
			})
			return err
		},
		OnStoryShow: func(it story.Item, index int) {
			fyne.Do(func() {
				a.UI.statusLabel.SetText(fmt.Sprintf("%s  |  Page %d / %d", d.Title, index+1, len(d.Items)))
			})
		},
		OnContentError: func(it story.Item, index int, err error) {
			a.addLogMessage(fmt.Sprintf("Page %d failed to load: %v", index+1, err))
		},
	})
	if err != nil {
		return err
	}

	interp := gesture.NewInterpreter(gesture.Config{
		Controller: player.Controller(),
		State:      player.Engine(),
		OnTapPrevious: func(_ story.Item, _ int, hasEarlier bool) {
			if !hasEarlier {
				a.addLogMessage("Already at the first page")
			}
		},
		OnVerticalSwipeComplete:   a.onVerticalSwipe,
		OnHorizontalSwipeComplete: a.onHorizontalSwipe,
	})

	var indicator *IndicatorRow
	var indicatorObj fyne.CanvasObject
	if d.Indicator.Position != progress.Hidden {
		indicator = NewIndicatorRow(d.Indicator, len(d.Items))
		indicatorObj = indicator
	}
	view := NewStoryView(interp, content, indicatorObj, d.Indicator.Position == progress.Bottom)

	stopped := make(chan struct{})
	a.stopWatch = player.Watch(func(snap playback.Snapshot) {
		if indicator == nil {
			return
		}
		fyne.Do(func() { indicator.Render(snap) })
	})
	go func() {
		select {
		case <-player.Done():
			fyne.Do(func() {
				if a.player == player {
					a.storyComplete()
				}
			})
		case <-stopped:
		}
	}()

	a.player = player
	a.stopped = stopped
	a.UI.content = content
	a.UI.indicator = indicator
	a.UI.view = view
	a.UI.storyHost.Objects = []fyne.CanvasObject{view}
	a.UI.storyHost.Refresh()
	a.showStory()
	a.UI.MainWin.SetTitle("storyview - " + d.Title)

	player.Start()
	return nil
}

// stopStory stops the current story.
func (a *App) stopStory() {
	if a.player == nil {
		return
	}
	close(a.stopped)
	a.stopWatch()
	final := a.player.Stop()
	if final.State != playback.Completed {
		a.addLogMessage(fmt.Sprintf("Closed %s at page %d / %d", a.player.Deck().Title, final.Index+1, len(final.Entries)))
	}
	a.player = nil
}

func (a *App) storyComplete() {
	a.addLogMessage("Story complete")
	if a.single {
		return
	}
	if !a.playAdjacent(1) {
		a.closeStory()
	}
}

// closeStory stops the story and returns to the deck list, or quits when the
// viewer was started on a single deck.
func (a *App) closeStory() {
	a.stopStory()
	if a.single {
		a.app.Quit()
		return
	}
	a.showDecks()
}

// playAdjacent plays the library deck offset places from the current one.
func (a *App) playAdjacent(offset int) bool {
	if a.player == nil || a.player.Name() == "" {
		return false
	}
	for i, name := range a.deckOrder {
		if name != a.player.Name() {
			continue
		}
		j := i + offset
		if j < 0 || j >= len(a.deckOrder) {
			return false
		}
		a.playByName(a.deckOrder[j])
		return true
	}
	return false
}

func (a *App) playByName(name string) {
	if a.playStored(name) {
		a.history.Visit(name)
	}
}

func (a *App) playStored(name string) bool {
	d, err := a.Service.LoadDeck(name)
	if err != nil {
		dialog.ShowError(err, a.UI.MainWin)
		return false
	}
	if err := a.playDeck(d, name); err != nil {
		dialog.ShowError(err, a.UI.MainWin)
		return false
	}
	return true
}

// playHistory plays the deck step moves the history to.
func (a *App) playHistory(step func() (string, bool)) {
	name, ok := step()
	if !ok {
		a.addLogMessage("No more stories in history")
		return
	}
	a.playStored(name)
}

func (a *App) onVerticalSwipe(dir gesture.Direction) {
	a.addLogMessage(fmt.Sprintf("Swipe %s", dir))
	if dir == gesture.Down {
		a.closeStory()
	}
}

func (a *App) onHorizontalSwipe(dir gesture.Direction) {
	switch dir {
	case gesture.Left:
		a.playAdjacent(1)
	case gesture.Right:
		a.playAdjacent(-1)
	}
}

// togglePause pauses a playing story and resumes any other.
func (a *App) togglePause() {
	if a.player == nil {
		return
	}
	if a.player.Engine().State() == playback.Playing {
		a.player.Controller().Pause()
	} else {
		a.player.Controller().Play()
	}
}

func (a *App) showStory() {
	a.UI.decksView.Hide()
	a.UI.storyHost.Show()
}

func (a *App) showDecks() {
	a.UI.storyHost.Hide()
	a.UI.MainWin.SetTitle("storyview")
	a.UI.statusLabel.SetText("Library")
	if a.UI.refreshDecks != nil {
		a.UI.refreshDecks()
	}
	a.UI.decksView.Show()
}

// CreateApplication opens the library, builds the main window and runs the
// viewer until it is closed.
func CreateApplication() {
	flag.Parse()
	if err := config.LoadEnv(); err != nil {
		log.Printf("Ignoring .env: %v", err)
	}
	cfg := config.Load()

	a := app.NewWithID("com.github.storyview")
	a.SetIcon(theme.MediaPlayIcon())
	a.Settings().SetTheme(NewStoryTheme(a.Settings().Theme()))

	ui := &App{app: a, cfg: cfg, history: history.New(cfg.HistorySize)}

	dbPath := *dbPathFlag
	if dbPath == "" {
		dbPath = cfg.LibraryDir
	}
	var err error
	ui.lib, err = library.NewLibrary(dbPath, ui.addLogMessage)
	if err != nil {
		log.Fatalf("Failed to open deck library: %v", err)
	}
	ui.Service = service.NewService(ui.lib, scan.FileScannerImpl{}, ui.addLogMessage)
	ui.ImageService = service.NewImageService()

	ui.UI.MainWin = a.NewWindow("storyview")
	ui.UI.MainWin.SetIcon(theme.MediaPlayIcon())
	ui.UI.MainWin.SetCloseIntercept(func() {
		ui.stopStory()
		if err := ui.lib.Close(); err != nil {
			log.Printf("Error closing deck library: %v", err)
		}
		ui.UI.MainWin.Close()
	})
	ui.UI.MainWin.SetContent(ui.buildMainUI())
	ui.UI.MainWin.Resize(fyne.NewSize(420, 760))
	ui.UI.MainWin.CenterOnScreen()

	d, name, err := ui.loadStartDeck()
	switch {
	case err != nil:
		ui.addLogMessage(fmt.Sprintf("Failed to load deck: %v", err))
		ui.showDecks()
	case d != nil:
		ui.single = name == ""
		if !d.Inline {
			ui.UI.MainWin.SetFullScreen(true)
		}
		if err := ui.playDeck(d, name); err != nil {
			ui.addLogMessage(fmt.Sprintf("Failed to play deck: %v", err))
			ui.showDecks()
		} else {
			ui.history.Visit(name)
		}
	default:
		ui.showDecks()
	}

	ui.UI.MainWin.ShowAndRun()
}
