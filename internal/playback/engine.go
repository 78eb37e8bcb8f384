// Package playback drives a story: it owns the current page, runs the
// progress clock for it and reacts to controller commands.
package playback

import (
	"fmt"
	"log"
	"sync"
	"time"

	"storyview/internal/clock"
	"storyview/internal/controller"
	"storyview/internal/story"
)

const (
	// DefaultHoldWindow is how long after a pause a release still counts as a tap.
	DefaultHoldWindow = 500 * time.Millisecond
	// DefaultFastForward is how long "next" on the last page takes to fill its bar.
	DefaultFastForward = 10 * time.Millisecond
)

// LoggerFunc receives engine log lines.
type LoggerFunc func(message string)

// Config configures an Engine.
type Config struct {
	Items      []story.Item
	Controller *controller.Controller
	Clock      clock.Clock // defaults to clock.New()
	Repeat     bool

	HoldWindow    time.Duration // defaults to DefaultHoldWindow
	FastForward   time.Duration // defaults to DefaultFastForward
	FrameInterval time.Duration // 0 disables frame ticks

	OnComplete     func()
	OnStoryShow    func(item story.Item, index int)
	OnProgress     func(Snapshot)
	OnContentError func(item story.Item, index int, err error)

	Logger LoggerFunc
}

// Snapshot is a point-in-time view of the engine.
type Snapshot struct {
	State    State         `json:"state"`
	Index    int           `json:"index"`
	Progress float64       `json:"progress"`
	Holding  bool          `json:"holding"`
	Entries  []story.Entry `json:"entries"`
}

// Engine is the playback state machine. All state changes run on a serial
// queue, so commands, timer fires and content signals never interleave.
type Engine struct {
	cfg  Config
	clk  clock.Clock
	loop serial

	mu          sync.Mutex
	seq         *story.Sequence
	state       State
	started     bool
	alive       bool
	unsubscribe func()

	// The running clock moves progress from base to 1.0 over span,
	// starting at runStart.
	base       float64
	runStart   time.Time
	span       time.Duration
	gen        int
	completion clock.Timer
	frame      clock.Timer

	holdGen   int
	hold      clock.Timer
	holdUntil time.Time
}

// effects are callbacks collected under the lock and run after it is released.
type effects []func()

func (fx effects) run() {
	for _, f := range fx {
		f()
	}
}

// New validates cfg and builds an Engine. The engine does nothing until Start.
func New(cfg Config) (*Engine, error) {
	seq, err := story.NewSequence(cfg.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to create playback engine: %w", err)
	}
	if cfg.Controller == nil {
		return nil, fmt.Errorf("failed to create playback engine: controller is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.HoldWindow <= 0 {
		cfg.HoldWindow = DefaultHoldWindow
	}
	if cfg.FastForward <= 0 {
		cfg.FastForward = DefaultFastForward
	}
	return &Engine{
		cfg:   cfg,
		clk:   cfg.Clock,
		seq:   seq,
		state: Idle,
	}, nil
}

func (e *Engine) logMessage(format string, args ...interface{}) {
	if e.cfg.Logger != nil {
		e.cfg.Logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

// Start normalizes the shown flags, subscribes to the controller and begins
// playing the first unshown page. Only the first call has any effect.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.alive = true
	e.mu.Unlock()

	unsub := e.cfg.Controller.Subscribe(func(cmd controller.Command) {
		e.loop.Do(func() { e.handle(cmd) })
	})

	e.loop.Do(func() {
		e.mu.Lock()
		if !e.alive {
			e.mu.Unlock()
			unsub()
			return
		}
		e.unsubscribe = unsub
		e.seq.Normalize()
		e.logMessage("Starting story with %d pages at page %d", e.seq.Len(), e.seq.Current()+1)
		fx := e.beginPlayLocked(e.seq.Current())
		e.mu.Unlock()
		fx.run()
	})
}

// Stop tears the engine down: it unsubscribes from the controller, cancels
// every timer and drops any event still in flight. No callback fires after
// Stop returns, except one already running.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.alive {
		e.started = true
		e.mu.Unlock()
		return
	}
	e.alive = false
	e.stopTimersLocked()
	e.cancelHoldLocked()
	unsub := e.unsubscribe
	e.unsubscribe = nil
	e.state = Idle
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// ReportLoad is the page content's load signal. Failures are reported through
// OnContentError; playback keeps running either way.
func (e *Engine) ReportLoad(index int, err error) {
	if err == nil {
		return
	}
	e.loop.Do(func() {
		e.mu.Lock()
		if !e.alive || index < 0 || index >= e.seq.Len() {
			e.mu.Unlock()
			return
		}
		item := e.seq.Item(index)
		e.mu.Unlock()

		e.logMessage("Page %d failed to load: %v", index+1, err)
		if e.cfg.OnContentError != nil {
			e.cfg.OnContentError(item, index, err)
		}
	})
}

func (e *Engine) handle(cmd controller.Command) {
	e.mu.Lock()
	if !e.alive {
		e.mu.Unlock()
		return
	}
	var fx effects
	switch cmd {
	case controller.Pause:
		fx = e.pauseLocked()
	case controller.Play:
		fx = e.playLocked()
	case controller.Next:
		fx = e.nextLocked()
	case controller.Previous:
		fx = e.previousLocked()
	}
	e.mu.Unlock()
	fx.run()
}

func (e *Engine) pauseLocked() effects {
	switch e.state {
	case Playing:
		e.stopClockLocked()
	case Paused, Holding:
	default:
		return nil
	}
	e.state = Holding
	e.armHoldLocked()
	return e.publishLocked()
}

func (e *Engine) playLocked() effects {
	e.cancelHoldLocked()
	switch e.state {
	case Paused, Holding:
		remaining := time.Duration(float64(e.currentDuration()) * (1 - e.base))
		e.state = Playing
		e.startClockLocked(remaining)
		return e.publishLocked()
	}
	return nil
}

func (e *Engine) nextLocked() effects {
	e.cancelHoldLocked()
	if e.state == Completed {
		return nil
	}
	cur := e.seq.Current()
	if !e.seq.IsLast(cur) {
		e.stopClockLocked()
		e.seq.MarkShown(cur)
		return e.beginPlayLocked(cur + 1)
	}
	// Fill the last bar quickly instead of jumping, then complete normally.
	e.stopClockLocked()
	e.state = Playing
	e.startClockLocked(e.cfg.FastForward)
	return e.publishLocked()
}

func (e *Engine) previousLocked() effects {
	e.cancelHoldLocked()
	e.stopClockLocked()
	if e.seq.AllShown() {
		e.seq.MarkUnshown(e.seq.Len() - 1)
	}
	cur := e.seq.Current()
	if cur == 0 {
		return e.beginPlayLocked(0)
	}
	e.seq.MarkUnshown(cur - 1)
	return e.beginPlayLocked(cur - 1)
}

// clockDoneLocked runs when the progress clock reaches 1.0.
func (e *Engine) clockDoneLocked() effects {
	cur := e.seq.Current()
	e.stopTimersLocked()
	e.seq.MarkShown(cur)
	if !e.seq.IsLast(cur) {
		return e.beginPlayLocked(cur + 1)
	}

	var fx effects
	if e.cfg.OnComplete != nil {
		fx = append(fx, e.cfg.OnComplete)
	}
	if e.cfg.Repeat {
		e.logMessage("Story finished, repeating")
		e.seq.Reset()
		return append(fx, e.beginPlayLocked(0)...)
	}
	e.logMessage("Story finished")
	e.state = Completed
	e.base = 1
	return append(fx, e.publishLocked()...)
}

// beginPlayLocked starts page index from zero progress and announces it.
func (e *Engine) beginPlayLocked(index int) effects {
	e.stopTimersLocked()
	e.state = Playing
	e.base = 0
	item := e.seq.Item(index)
	e.startClockLocked(item.Duration)

	var fx effects
	if e.cfg.OnStoryShow != nil {
		show := e.cfg.OnStoryShow
		fx = append(fx, func() { show(item, index) })
	}
	return append(fx, e.publishLocked()...)
}

func (e *Engine) currentDuration() time.Duration {
	return e.seq.Item(e.seq.Current()).Duration
}

// startClockLocked runs the clock from e.base to 1.0 over span, replacing any
// running clock.
func (e *Engine) startClockLocked(span time.Duration) {
	e.stopTimersLocked()
	if span <= 0 {
		span = time.Nanosecond
	}
	e.runStart = e.clk.Now()
	e.span = span
	gen := e.gen
	e.completion = e.clk.AfterFunc(span, e.timerEvent(gen, e.clockDoneLocked))
	e.scheduleFrameLocked(gen)
}

func (e *Engine) scheduleFrameLocked(gen int) {
	if e.cfg.FrameInterval <= 0 || e.cfg.OnProgress == nil {
		return
	}
	e.frame = e.clk.AfterFunc(e.cfg.FrameInterval, e.timerEvent(gen, func() effects {
		if e.state != Playing {
			return nil
		}
		e.scheduleFrameLocked(gen)
		return e.publishLocked()
	}))
}

// stopClockLocked freezes progress where it is and cancels the clock.
func (e *Engine) stopClockLocked() {
	if e.state == Playing {
		e.base = e.progressLocked(e.clk.Now())
	}
	e.stopTimersLocked()
}

// stopTimersLocked cancels clock timers and invalidates any fire already queued.
func (e *Engine) stopTimersLocked() {
	e.gen++
	if e.completion != nil {
		e.completion.Stop()
		e.completion = nil
	}
	if e.frame != nil {
		e.frame.Stop()
		e.frame = nil
	}
}

// timerEvent wraps a timer callback so it runs on the serial queue and is
// dropped if the engine stopped or the clock was restarted meanwhile.
func (e *Engine) timerEvent(gen int, f func() effects) func() {
	return func() {
		e.loop.Do(func() {
			e.mu.Lock()
			if !e.alive || gen != e.gen {
				e.mu.Unlock()
				return
			}
			fx := f()
			e.mu.Unlock()
			fx.run()
		})
	}
}

func (e *Engine) armHoldLocked() {
	e.cancelHoldLocked()
	e.holdUntil = e.clk.Now().Add(e.cfg.HoldWindow)
	gen := e.holdGen
	e.hold = e.clk.AfterFunc(e.cfg.HoldWindow, func() {
		e.loop.Do(func() {
			e.mu.Lock()
			if !e.alive || gen != e.holdGen {
				e.mu.Unlock()
				return
			}
			e.hold = nil
			var fx effects
			if e.state == Holding {
				e.state = Paused
				fx = e.publishLocked()
			}
			e.mu.Unlock()
			fx.run()
		})
	})
}

func (e *Engine) cancelHoldLocked() {
	e.holdGen++
	e.holdUntil = time.Time{}
	if e.hold != nil {
		e.hold.Stop()
		e.hold = nil
	}
}

func (e *Engine) progressLocked(now time.Time) float64 {
	switch e.state {
	case Playing:
		elapsed := now.Sub(e.runStart)
		if elapsed <= 0 {
			return e.base
		}
		if elapsed >= e.span {
			return 1
		}
		return e.base + (1-e.base)*float64(elapsed)/float64(e.span)
	case Paused, Holding:
		return e.base
	case Completed:
		return 1
	default:
		return 0
	}
}

func (e *Engine) holdingLocked(now time.Time) bool {
	return e.state == Holding && now.Before(e.holdUntil)
}

func (e *Engine) snapshotLocked() Snapshot {
	now := e.clk.Now()
	return Snapshot{
		State:    e.state,
		Index:    e.seq.Current(),
		Progress: e.progressLocked(now),
		Holding:  e.holdingLocked(now),
		Entries:  e.seq.Entries(),
	}
}

func (e *Engine) publishLocked() effects {
	if e.cfg.OnProgress == nil {
		return nil
	}
	snap := e.snapshotLocked()
	publish := e.cfg.OnProgress
	return effects{func() { publish(snap) }}
}

// Snapshot returns the current state, page and progress.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Index returns the current page: the first unshown one, or the last page
// when every page is shown.
func (e *Engine) Index() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq.Current()
}

// Progress returns the current page's progress in [0,1].
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked(e.clk.Now())
}

// Holding reports whether a pause's hold window is still open, meaning a
// release now should count as a tap.
func (e *Engine) Holding() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.holdingLocked(e.clk.Now())
}

// HoldWindow returns how long after a pause a release still counts as a tap.
func (e *Engine) HoldWindow() time.Duration { return e.cfg.HoldWindow }

// Clock returns the clock driving the engine.
func (e *Engine) Clock() clock.Clock { return e.clk }

// Shown reports whether page i was shown in the current pass.
func (e *Engine) Shown(i int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= e.seq.Len() {
		return false
	}
	return e.seq.Shown(i)
}

// Len returns the number of pages.
func (e *Engine) Len() int { return e.seq.Len() }

// CurrentItem returns the current page and its index.
func (e *Engine) CurrentItem() (story.Item, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.seq.Current()
	return e.seq.Item(i), i
}

// PreviousTarget returns the page a "previous" command would move to and
// whether there is a page before that one.
func (e *Engine) PreviousTarget() (item story.Item, index int, hasEarlier bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	index = e.seq.Current() - 1
	if index < 0 {
		index = 0
	}
	return e.seq.Item(index), index, index > 0
}
