package gesture

import (
	"time"

	"storyview/internal/clock"
	"storyview/internal/controller"
	"storyview/internal/story"
)

// PlaybackState is what the interpreter needs to know about the engine.
type PlaybackState interface {
	Clock() clock.Clock
	HoldWindow() time.Duration
	CurrentItem() (story.Item, int)
	PreviousTarget() (item story.Item, index int, hasEarlier bool)
}

// Config wires an Interpreter to a controller, the engine and the host callbacks.
type Config struct {
	Controller *controller.Controller
	State      PlaybackState

	OnTapNext                 func(item story.Item, index int)
	OnTapPrevious             func(item story.Item, index int, hasEarlier bool)
	OnVerticalSwipeComplete   func(Direction)
	OnHorizontalSwipeComplete func(Direction)
}

// Interpreter classifies press and drag input into playback commands.
// It keeps per-gesture state and is meant to be driven from the UI goroutine.
type Interpreter struct {
	cfg        Config
	pressed    bool
	pressedAt  time.Time
	vertical   *DragState
	horizontal *DragState
}

// NewInterpreter creates an Interpreter.
func NewInterpreter(cfg Config) *Interpreter {
	return &Interpreter{cfg: cfg}
}

// PressDown pauses playback and arms the hold window. The window is measured
// from the press, not from when the engine applies the pause.
func (in *Interpreter) PressDown() {
	in.pressed = true
	in.pressedAt = in.cfg.State.Clock().Now()
	in.cfg.Controller.Pause()
}

// PressCancel resumes playback when the pointer leaves without releasing.
func (in *Interpreter) PressCancel() {
	if !in.pressed {
		return
	}
	in.pressed = false
	in.cfg.Controller.Play()
}

// PressRelease either resumes (the press was a hold) or skips to the next
// page (the press was a tap, released inside the hold window).
func (in *Interpreter) PressRelease() {
	if !in.pressed {
		return
	}
	in.pressed = false
	if in.cfg.State.Clock().Now().Sub(in.pressedAt) >= in.cfg.State.HoldWindow() {
		in.cfg.Controller.Play()
		return
	}
	if in.cfg.OnTapNext != nil {
		item, index := in.cfg.State.CurrentItem()
		in.cfg.OnTapNext(item, index)
	}
	in.cfg.Controller.Next()
}

// Pressed reports whether a press is in progress.
func (in *Interpreter) Pressed() bool { return in.pressed }

// TapPrevious handles a tap on the previous-page region. It bypasses the hold
// logic entirely.
func (in *Interpreter) TapPrevious() {
	if in.cfg.OnTapPrevious != nil {
		item, index, hasEarlier := in.cfg.State.PreviousTarget()
		in.cfg.OnTapPrevious(item, index, hasEarlier)
	}
	in.cfg.Controller.Previous()
}

// takeOverPress resolves a press that turned into a drag: the drag wins and
// the press is canceled.
func (in *Interpreter) takeOverPress() {
	if in.pressed {
		in.PressCancel()
	}
}

// VerticalDragStart begins a vertical drag. It returns false, and does
// nothing, when no vertical swipe callback is registered so outer scrolling
// containers can have the gesture.
func (in *Interpreter) VerticalDragStart() bool {
	if in.cfg.OnVerticalSwipeComplete == nil {
		return false
	}
	in.takeOverPress()
	in.vertical = NewDragState(Vertical)
	in.cfg.Controller.Pause()
	return true
}

// VerticalDragUpdate feeds a signed vertical movement.
func (in *Interpreter) VerticalDragUpdate(dy float64) {
	if in.vertical == nil {
		return
	}
	in.vertical.Update(dy)
}

// VerticalDragEnd resumes playback and reports the swipe unless it reversed.
func (in *Interpreter) VerticalDragEnd() {
	if in.vertical == nil {
		return
	}
	drag := in.vertical
	in.vertical = nil
	in.cfg.Controller.Play()
	if !drag.Canceled && in.cfg.OnVerticalSwipeComplete != nil {
		in.cfg.OnVerticalSwipeComplete(drag.Direction)
	}
}

// VerticalDragCancel resumes playback and discards the drag.
func (in *Interpreter) VerticalDragCancel() {
	if in.vertical == nil {
		return
	}
	in.vertical = nil
	in.cfg.Controller.Play()
}

// HorizontalDragStart begins a horizontal drag. Horizontal drags never pause.
func (in *Interpreter) HorizontalDragStart() bool {
	if in.cfg.OnHorizontalSwipeComplete == nil {
		return false
	}
	in.takeOverPress()
	in.horizontal = NewDragState(Horizontal)
	return true
}

// HorizontalDragUpdate feeds a signed horizontal movement.
func (in *Interpreter) HorizontalDragUpdate(dx float64) {
	if in.horizontal == nil {
		return
	}
	in.horizontal.Update(dx)
}

// HorizontalDragEnd reports the swipe. Unlike vertical drags this fires even
// when the drag reversed direction.
func (in *Interpreter) HorizontalDragEnd() {
	if in.horizontal == nil {
		return
	}
	drag := in.horizontal
	in.horizontal = nil
	if in.cfg.OnHorizontalSwipeComplete != nil {
		in.cfg.OnHorizontalSwipeComplete(drag.Direction)
	}
}

// HorizontalDragCancel discards the drag.
func (in *Interpreter) HorizontalDragCancel() {
	in.horizontal = nil
}

// Dragging reports whether a drag on either axis is being tracked.
func (in *Interpreter) Dragging() bool {
	return in.vertical != nil || in.horizontal != nil
}
