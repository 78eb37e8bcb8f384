package main

import (
	"fmt"
	"io"
	"strings"

	"storyview/internal/controller"
	"storyview/internal/gesture"
)

const inputHelp = `keys: <enter> tap next, b tap previous, p press, r release, c cancel press,
      u/d swipe up/down (down closes), </> swipe left/right, pause, play, q quit`

// dragSample is the movement fed to a simulated swipe.
const dragSample = 40

// inputHandler maps typed lines to the pointer gestures a touch screen would
// produce, so the terminal player goes through the same interpreter as the GUI.
type inputHandler struct {
	interp *gesture.Interpreter
	ctrl   *controller.Controller
	out    io.Writer
}

// handle applies one input line and reports whether the player should quit.
func (h *inputHandler) handle(line string) (quit bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "t", "tap":
		h.interp.PressDown()
		h.interp.PressRelease()
	case "b", "back":
		h.interp.TapPrevious()
	case "p", "press":
		h.interp.PressDown()
	case "r", "release":
		h.interp.PressRelease()
	case "c", "cancel":
		h.interp.PressCancel()
	case "d", "down":
		h.swipeVertical(dragSample)
	case "u", "up":
		h.swipeVertical(-dragSample)
	case "<", "left":
		h.swipeHorizontal(-dragSample)
	case ">", "right":
		h.swipeHorizontal(dragSample)
	case "pause":
		h.ctrl.Pause()
	case "play":
		h.ctrl.Play()
	case "q", "quit", "exit":
		return true
	case "?", "h", "help":
		fmt.Fprintln(h.out, inputHelp)
	default:
		fmt.Fprintf(h.out, "unknown key %q, type ? for help\n", line)
	}
	return false
}

func (h *inputHandler) swipeVertical(dy float64) {
	if !h.interp.VerticalDragStart() {
		return
	}
	h.interp.VerticalDragUpdate(dy)
	h.interp.VerticalDragEnd()
}

func (h *inputHandler) swipeHorizontal(dx float64) {
	if !h.interp.HorizontalDragStart() {
		return
	}
	h.interp.HorizontalDragUpdate(dx)
	h.interp.HorizontalDragEnd()
}
