// Package gesture turns raw pointer input into playback commands and swipe
// outcomes.
package gesture

import "math"

// Direction is the direction of a swipe.
type Direction int

const (
	None Direction = iota
	Up
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

// Axis is the axis a drag is locked to.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// AxisOf picks the dominant axis of a pointer movement. Ties go to Vertical.
func AxisOf(dx, dy float32) Axis {
	if math.Abs(float64(dx)) > math.Abs(float64(dy)) {
		return Horizontal
	}
	return Vertical
}

// DragState tracks the direction of one continuous drag along one axis.
// Once two different directions have been seen the drag is canceled until
// it ends.
type DragState struct {
	Axis      Axis
	Direction Direction
	Canceled  bool
}

// NewDragState starts tracking a drag along axis.
func NewDragState(axis Axis) *DragState {
	return &DragState{Axis: axis}
}

// Update feeds one signed movement sample. Positive deltas are down/right,
// anything else is up/left.
func (d *DragState) Update(delta float64) {
	var dir Direction
	if d.Axis == Horizontal {
		dir = Left
		if delta > 0 {
			dir = Right
		}
	} else {
		dir = Up
		if delta > 0 {
			dir = Down
		}
	}
	if d.Direction != None && dir != d.Direction {
		d.Canceled = true
	}
	d.Direction = dir
}
