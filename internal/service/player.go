package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"storyview/internal/clock"
	"storyview/internal/controller"
	"storyview/internal/deck"
	"storyview/internal/playback"
	"storyview/internal/story"
)

// PageLoader prepares a page's content. A returned error is reported to the
// engine as a load failure; playback continues regardless.
type PageLoader func(it story.Item) error

// PlayerConfig configures a Player.
type PlayerConfig struct {
	Name          string // library name, empty for decks that are not stored
	Deck          *deck.Deck
	Clock         clock.Clock
	FrameInterval time.Duration
	Loader        PageLoader
	Logger        func(string)

	OnStoryShow    func(item story.Item, index int)
	OnContentError func(item story.Item, index int, err error)
}

// Player binds a deck to its own controller and playback engine and fans
// snapshots out to any number of watchers.
type Player struct {
	name   string
	deck   *deck.Deck
	ctrl   *controller.Controller
	engine *playback.Engine
	loader PageLoader
	logger func(string)

	mu       sync.Mutex
	watchers map[int]func(playback.Snapshot)
	nextID   int

	done     chan struct{}
	doneOnce sync.Once
}

// NewPlayer builds a Player. Nothing plays until Start.
func NewPlayer(cfg PlayerConfig) (*Player, error) {
	if cfg.Deck == nil {
		return nil, fmt.Errorf("failed to create player: deck is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = func(string) {}
	}
	p := &Player{
		name:     cfg.Name,
		deck:     cfg.Deck,
		ctrl:     controller.New(),
		loader:   cfg.Loader,
		logger:   cfg.Logger,
		watchers: make(map[int]func(playback.Snapshot)),
		done:     make(chan struct{}),
	}

	engine, err := playback.New(playback.Config{
		Items:         cfg.Deck.Items,
		Controller:    p.ctrl,
		Clock:         cfg.Clock,
		Repeat:        cfg.Deck.Repeat,
		FrameInterval: cfg.FrameInterval,
		OnComplete:    p.complete,
		OnStoryShow: func(it story.Item, index int) {
			p.logger(fmt.Sprintf("Showing page %d/%d: %s", index+1, len(cfg.Deck.Items), story.Describe(it)))
			if cfg.OnStoryShow != nil {
				cfg.OnStoryShow(it, index)
			}
			p.load(it, index)
		},
		OnProgress:     p.broadcast,
		OnContentError: cfg.OnContentError,
		Logger:         playback.LoggerFunc(cfg.Logger),
	})
	if err != nil {
		return nil, err
	}
	p.engine = engine
	return p, nil
}

func (p *Player) load(it story.Item, index int) {
	if p.loader == nil {
		return
	}
	go func() {
		if err := p.loader(it); err != nil {
			p.engine.ReportLoad(index, err)
		}
	}()
}

func (p *Player) complete() {
	if p.deck.Repeat {
		return
	}
	p.doneOnce.Do(func() { close(p.done) })
}

func (p *Player) broadcast(snap playback.Snapshot) {
	p.mu.Lock()
	ids := make([]int, 0, len(p.watchers))
	for id := range p.watchers {
		ids = append(ids, id)
	}
	fns := make([]func(playback.Snapshot), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, p.watchers[id])
	}
	p.mu.Unlock()

	for _, f := range fns {
		f(snap)
	}
}

// Watch registers f to receive every published snapshot. The returned
// function removes it.
func (p *Player) Watch(f func(playback.Snapshot)) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = f
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.watchers, id)
		p.mu.Unlock()
	}
}

// Start begins playback.
func (p *Player) Start() { p.engine.Start() }

// Stop ends playback and returns the final snapshot.
func (p *Player) Stop() playback.Snapshot {
	snap := p.engine.Snapshot()
	p.engine.Stop()
	p.ctrl.Close()
	return snap
}

// Done is closed when a non-repeating story completes.
func (p *Player) Done() <-chan struct{} { return p.done }

// Name returns the library name, if any.
func (p *Player) Name() string { return p.name }

// Deck returns the deck being played.
func (p *Player) Deck() *deck.Deck { return p.deck }

// Controller returns the command bus driving the engine.
func (p *Player) Controller() *controller.Controller { return p.ctrl }

// Engine returns the playback engine.
func (p *Player) Engine() *playback.Engine { return p.engine }

// Snapshot returns the engine's current snapshot.
func (p *Player) Snapshot() playback.Snapshot { return p.engine.Snapshot() }

