package service

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storyview/internal/deck"
	"storyview/internal/library"
	"storyview/internal/scan"
	"storyview/internal/story"
)

// DeckStore abstracts the deck library for easier testing and decoupling.
type DeckStore interface {
	Put(name string, d *deck.Deck) error
	Get(name string) (*deck.Deck, error)
	Info(name string) (library.DeckInfo, error)
	List() ([]library.DeckInfo, error)
	Delete(name string) error
	AddTag(name, tag string) error
	RemoveTag(name, tag string) error
	DecksWithTag(tag string) ([]string, error)
	AllTags() ([]library.TagWithCount, error)
	Close() error
}

// Service is the main entry point for business logic.
type Service struct {
	Decks    DeckStore
	FileScan scan.FileScanner
	Logger   func(string)
}

// NewService constructs a new Service.
func NewService(decks DeckStore, fileScan scan.FileScanner, logger func(string)) *Service {
	if logger == nil {
		logger = func(string) {}
	}
	return &Service{Decks: decks, FileScan: fileScan, Logger: logger}
}

// DeckName derives a library name from a deck file path.
func DeckName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ImportDeck loads a deck file and stores it under name, or under the file's
// base name when name is empty.
func (s *Service) ImportDeck(path, name string) (library.DeckInfo, error) {
	d, err := deck.Load(path)
	if err != nil {
		return library.DeckInfo{}, err
	}
	if name == "" {
		name = DeckName(path)
	}
	return s.StoreDeck(name, d)
}

// StoreDeck stores an already built deck.
func (s *Service) StoreDeck(name string, d *deck.Deck) (library.DeckInfo, error) {
	if err := s.Decks.Put(name, d); err != nil {
		return library.DeckInfo{}, err
	}
	s.Logger(fmt.Sprintf("Imported deck %s: %q with %d pages", name, d.Title, len(d.Items)))
	return s.Decks.Info(name)
}

// LoadDeck fetches a stored deck as it was imported.
func (s *Service) LoadDeck(name string) (*deck.Deck, error) {
	if name == "" {
		return nil, errors.New("deck name required")
	}
	return s.Decks.Get(name)
}

// ListDecks returns stored decks, optionally only those carrying tag.
func (s *Service) ListDecks(tag string) ([]library.DeckInfo, error) {
	infos, err := s.Decks.List()
	if err != nil || tag == "" {
		return infos, err
	}
	names, err := s.Decks.DecksWithTag(tag)
	if err != nil {
		return nil, fmt.Errorf("failed to get decks for tag '%s': %w", tag, err)
	}
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	var out []library.DeckInfo
	for _, info := range infos {
		if keep[info.Name] {
			out = append(out, info)
		}
	}
	return out, nil
}

// RemoveDeck deletes a stored deck.
func (s *Service) RemoveDeck(name string) error {
	if name == "" {
		return errors.New("deck name required")
	}
	return s.Decks.Delete(name)
}

// TagDeck adds one or more tags to a deck.
func (s *Service) TagDeck(name string, tags []string) error {
	if name == "" || len(tags) == 0 {
		return errors.New("deck name and tags required")
	}
	for _, tag := range tags {
		if err := s.Decks.AddTag(name, strings.ToLower(strings.TrimSpace(tag))); err != nil {
			return err
		}
	}
	return nil
}

// UntagDeck removes one or more tags from a deck.
func (s *Service) UntagDeck(name string, tags []string) error {
	if name == "" || len(tags) == 0 {
		return errors.New("deck name and tags required")
	}
	for _, tag := range tags {
		if err := s.Decks.RemoveTag(name, strings.ToLower(strings.TrimSpace(tag))); err != nil {
			return err
		}
	}
	return nil
}

// ListAllTags returns all tags with their deck counts.
func (s *Service) ListAllTags() ([]library.TagWithCount, error) {
	return s.Decks.AllTags()
}

// MissingMedia lists the local image and video files a stored deck refers to
// that no longer exist.
func (s *Service) MissingMedia(name string) ([]string, error) {
	d, err := s.Decks.Get(name)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, it := range d.Items {
		src := mediaSource(it)
		if src == "" || isRemote(src) {
			continue
		}
		if _, err := os.Stat(src); os.IsNotExist(err) {
			missing = append(missing, src)
		}
	}
	return missing, nil
}

// DirOptions controls how a directory becomes a deck.
type DirOptions struct {
	Title        string
	Repeat       bool
	Shuffle      bool
	Seed         int64         // zero picks a time based seed
	PageDuration time.Duration // zero keeps the per-kind default
}

// DeckFromDirectory scans dir for images, videos and .txt cards and turns
// them into a deck, in path order or shuffled.
func (s *Service) DeckFromDirectory(dir string, opts DirOptions) (*deck.Deck, error) {
	if dir == "" {
		return nil, errors.New("directory required")
	}
	files := scan.Collect(s.FileScan.Run(dir, func(msg string) { s.Logger("DeckFromDirectory: " + msg) }))
	if opts.Shuffle {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		files = scan.NewPermutationManager(&files, seed).Items()
	}

	d := &deck.Deck{Title: opts.Title, Repeat: opts.Repeat}
	if d.Title == "" {
		d.Title = filepath.Base(dir)
	}
	if err := d.Indicator.Validate(); err != nil {
		return nil, err
	}
	for _, f := range files {
		switch f.Kind {
		case scan.ImageFile:
			d.Items = append(d.Items, story.NewImageItem(f.Path, "", opts.PageDuration))
		case scan.VideoFile:
			d.Items = append(d.Items, story.NewVideoItem(f.Path, "", opts.PageDuration))
		case scan.TextFile:
			data, err := os.ReadFile(f.Path)
			if err != nil {
				s.Logger(fmt.Sprintf("DeckFromDirectory: skipping %s: %v", f.Path, err))
				continue
			}
			text := strings.TrimSpace(string(data))
			if text == "" {
				continue
			}
			d.Items = append(d.Items, story.NewTextItem(text, "", opts.PageDuration))
		}
	}
	if len(d.Items) == 0 {
		return nil, fmt.Errorf("no media found in %s: %w", dir, story.ErrNoItems)
	}
	s.Logger(fmt.Sprintf("Built deck %q from %s with %d pages", d.Title, dir, len(d.Items)))
	return d, nil
}

func mediaSource(it story.Item) string {
	switch c := it.Content.(type) {
	case story.Image:
		return c.Source
	case story.Video:
		return c.Source
	default:
		return ""
	}
}

func isRemote(src string) bool {
	u, err := url.Parse(src)
	return err == nil && u.Scheme != "" && u.Host != ""
}
