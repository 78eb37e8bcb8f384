package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"storyview/internal/gesture"
)

// previousRegionWidth is the strip along the left edge where a tap goes back
// a page.
const previousRegionWidth float32 = 70

// StoryView is the touch surface of a playing story. It feeds mouse presses
// and drags to a gesture interpreter and draws the content with the
// indicator row on top of it.
type StoryView struct {
	widget.BaseWidget

	interp  *gesture.Interpreter
	content fyne.CanvasObject

	onPrevious bool
	dragging   bool
	dragAxis   gesture.Axis
	dragTaken  bool
}

var (
	_ desktop.Mouseable = (*StoryView)(nil)
	_ desktop.Hoverable = (*StoryView)(nil)
	_ fyne.Draggable    = (*StoryView)(nil)
)

// NewStoryView lays indicator over content, at the top or the bottom. A nil
// indicator shows the content alone.
func NewStoryView(interp *gesture.Interpreter, content, indicator fyne.CanvasObject, atBottom bool) *StoryView {
	obj := content
	if indicator != nil {
		bar := container.NewPadded(indicator)
		overlay := container.NewBorder(bar, nil, nil, nil)
		if atBottom {
			overlay = container.NewBorder(nil, bar, nil, nil)
		}
		obj = container.NewStack(content, overlay)
	}
	v := &StoryView{interp: interp, content: obj}
	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget.
func (v *StoryView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.content)
}

// MouseDown starts a press. Presses in the left strip are held back until
// release and then go to the previous page.
func (v *StoryView) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	v.dragging = false
	v.dragTaken = false
	if ev.Position.X < previousRegionWidth {
		v.onPrevious = true
		return
	}
	v.onPrevious = false
	v.interp.PressDown()
}

// MouseUp ends a press that did not turn into a drag.
func (v *StoryView) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || v.dragging {
		return
	}
	if v.onPrevious {
		v.onPrevious = false
		v.interp.TapPrevious()
		return
	}
	v.interp.PressRelease()
}

// MouseIn implements desktop.Hoverable.
func (v *StoryView) MouseIn(*desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable.
func (v *StoryView) MouseMoved(*desktop.MouseEvent) {}

// MouseOut cancels a press when the pointer leaves the view.
func (v *StoryView) MouseOut() {
	if v.dragging {
		return
	}
	v.onPrevious = false
	v.interp.PressCancel()
}

// Dragged locks the drag to the axis of its first movement and feeds the
// movement along that axis.
func (v *StoryView) Dragged(ev *fyne.DragEvent) {
	if !v.dragging {
		v.dragging = true
		v.onPrevious = false
		v.dragAxis = gesture.AxisOf(ev.Dragged.DX, ev.Dragged.DY)
		if v.dragAxis == gesture.Vertical {
			v.dragTaken = v.interp.VerticalDragStart()
		} else {
			v.dragTaken = v.interp.HorizontalDragStart()
		}
		if !v.dragTaken {
			v.interp.PressCancel()
		}
	}
	if !v.dragTaken {
		return
	}
	if v.dragAxis == gesture.Vertical {
		v.interp.VerticalDragUpdate(float64(ev.Dragged.DY))
	} else {
		v.interp.HorizontalDragUpdate(float64(ev.Dragged.DX))
	}
}

// DragEnd completes the drag.
func (v *StoryView) DragEnd() {
	if !v.dragging || !v.dragTaken {
		return
	}
	v.dragTaken = false
	if v.dragAxis == gesture.Vertical {
		v.interp.VerticalDragEnd()
	} else {
		v.interp.HorizontalDragEnd()
	}
}
