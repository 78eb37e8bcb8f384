package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"storyview/internal/library"
	"storyview/internal/service"
)

const (
	noDecksMsg         = "The library is empty. Use File > Import to add a deck."
	noDecksMatchMsg    = "No decks match your search."
	errorLoadingMsg    = "Error loading decks."
	allTagsOption      = "(all tags)"
	deckListItemFormat = "%s  ·  %d pages, %s%s"
)

// deckListController drives the library list: search, tag filter and actions
// on the selected deck.
type deckListController struct {
	app *App

	allDecks      []library.DeckInfo
	filteredDecks []library.DeckInfo
	selected      string

	searchEntry  *widget.Entry
	tagSelect    *widget.Select
	playButton   *widget.Button
	removeButton *widget.Button
	deckList     *widget.List
	messageLabel *widget.Label
}

// filterDecks returns the decks whose name, title or tags contain term.
func filterDecks(decks []library.DeckInfo, term string) []library.DeckInfo {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return decks
	}
	var out []library.DeckInfo
	for _, d := range decks {
		if strings.Contains(strings.ToLower(d.Name), term) || strings.Contains(strings.ToLower(d.Title), term) {
			out = append(out, d)
			continue
		}
		for _, tag := range d.Tags {
			if strings.Contains(tag, term) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

func deckLabel(d library.DeckInfo) string {
	tags := ""
	if len(d.Tags) > 0 {
		tags = "  [" + strings.Join(d.Tags, ", ") + "]"
	}
	title := d.Title
	if title == "" {
		title = d.Name
	}
	return fmt.Sprintf(deckListItemFormat, title, d.Items, d.Duration, tags)
}

func (c *deckListController) filterAndRefreshList() {
	c.filteredDecks = filterDecks(c.allDecks, c.searchEntry.Text)
	c.app.deckOrder = c.app.deckOrder[:0]
	for _, d := range c.filteredDecks {
		c.app.deckOrder = append(c.app.deckOrder, d.Name)
	}

	if len(c.filteredDecks) == 0 {
		msg := noDecksMsg
		if c.searchEntry.Text != "" || c.currentTag() != "" {
			msg = noDecksMatchMsg
		}
		c.messageLabel.SetText(msg)
		c.messageLabel.Show()
		c.deckList.Hide()
	} else {
		c.messageLabel.Hide()
		c.deckList.Show()
		c.deckList.Refresh()
	}
}

func (c *deckListController) currentTag() string {
	if c.tagSelect.Selected == allTagsOption {
		return ""
	}
	return c.tagSelect.Selected
}

// loadDecks reloads decks and tags from the library.
func (c *deckListController) loadDecks() {
	decks, err := c.app.Service.ListDecks(c.currentTag())
	if err != nil {
		c.app.addLogMessage(fmt.Sprintf("Error loading decks: %v", err))
		c.allDecks = nil
		c.messageLabel.SetText(errorLoadingMsg)
	} else {
		c.allDecks = decks
	}

	options := []string{allTagsOption}
	if tags, err := c.app.Service.ListAllTags(); err == nil {
		for _, t := range tags {
			options = append(options, t.Name)
		}
	}
	c.tagSelect.Options = options
	c.tagSelect.Refresh()

	c.filterAndRefreshList()
	c.deckList.UnselectAll()
}

func (c *deckListController) onRemoveTapped() {
	name := c.selected
	if name == "" {
		return
	}
	msg := fmt.Sprintf("Remove the deck '%s' from the library?\nThe deck file itself is not touched.", name)
	dialog.ShowConfirm("Remove Deck", msg, func(confirm bool) {
		if !confirm {
			return
		}
		if err := c.app.Service.RemoveDeck(name); err != nil {
			dialog.ShowError(err, c.app.UI.MainWin)
			return
		}
		c.app.history.Remove(name)
		c.app.addLogMessage(fmt.Sprintf("Removed deck '%s'", name))
		c.loadDecks()
	}, c.app.UI.MainWin)
}

func (c *deckListController) onSelected(id widget.ListItemID) {
	if id < 0 || id >= len(c.filteredDecks) {
		c.onUnselected(id)
		return
	}
	c.selected = c.filteredDecks[id].Name
	c.playButton.Enable()
	c.removeButton.Enable()
}

func (c *deckListController) onUnselected(_ widget.ListItemID) {
	c.selected = ""
	c.playButton.Disable()
	c.removeButton.Disable()
}

func (a *App) buildDecksView() fyne.CanvasObject {
	c := &deckListController{app: a}

	c.searchEntry = widget.NewEntry()
	c.searchEntry.SetPlaceHolder("Search decks...")
	c.searchEntry.OnChanged = func(string) { c.filterAndRefreshList() }

	c.tagSelect = widget.NewSelect([]string{allTagsOption}, func(string) { c.loadDecks() })
	c.tagSelect.Selected = allTagsOption

	c.playButton = widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), func() {
		if c.selected != "" {
			a.playByName(c.selected)
		}
	})
	c.playButton.Importance = widget.HighImportance
	c.removeButton = widget.NewButtonWithIcon("Remove", theme.DeleteIcon(), c.onRemoveTapped)
	c.playButton.Disable()
	c.removeButton.Disable()
	refreshButton := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), c.loadDecks)

	c.deckList = widget.NewList(
		func() int { return len(c.filteredDecks) },
		func() fyne.CanvasObject { return widget.NewLabel("deck template") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(c.filteredDecks) {
				obj.(*widget.Label).SetText(deckLabel(c.filteredDecks[id]))
			}
		},
	)
	c.deckList.OnSelected = c.onSelected
	c.deckList.OnUnselected = c.onUnselected

	c.messageLabel = widget.NewLabel(noDecksMsg)
	c.messageLabel.Alignment = fyne.TextAlignCenter
	c.messageLabel.Wrapping = fyne.TextWrapWord

	a.UI.refreshDecks = c.loadDecks

	top := container.NewBorder(nil, nil, nil, refreshButton,
		container.NewGridWithColumns(2, c.searchEntry, c.tagSelect))
	actions := container.NewGridWithColumns(2, c.playButton, c.removeButton)
	return container.NewBorder(top, actions, nil, nil,
		container.NewStack(c.messageLabel, c.deckList))
}

func (a *App) importDeckDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		info, err := a.Service.ImportDeck(path, "")
		if err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		a.addLogMessage(fmt.Sprintf("Imported '%s': %d pages", info.Name, info.Items))
		if a.UI.refreshDecks != nil {
			a.UI.refreshDecks()
		}
	}, a.UI.MainWin)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".yaml", ".yml"}))
	d.Show()
}

func (a *App) importFolderDialog() {
	dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		if dir == nil {
			return
		}
		d, err := a.Service.DeckFromDirectory(dir.Path(), service.DirOptions{})
		if err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		info, err := a.Service.StoreDeck(service.DeckName(dir.Path()), d)
		if err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		a.addLogMessage(fmt.Sprintf("Imported '%s': %d pages", info.Name, info.Items))
		if a.UI.refreshDecks != nil {
			a.UI.refreshDecks()
		}
	}, a.UI.MainWin)
}
