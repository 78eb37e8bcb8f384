package ui

import (
	"fmt"

	"fyne.io/fyne/v2/widget"
)

// DefaultMaxLogMessages is how many status messages are kept for paging.
const DefaultMaxLogMessages = 100

// LogUIManager keeps the recent status messages and pages through them in the
// status bar. Its methods must run on the UI goroutine.
type LogUIManager struct {
	messages []string
	current  int
	max      int

	label   *widget.Label
	upBtn   *widget.Button
	downBtn *widget.Button
}

// NewLogUIManager binds a message history to the status bar widgets.
func NewLogUIManager(label *widget.Label, upBtn, downBtn *widget.Button, maxMessages int) *LogUIManager {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxLogMessages
	}
	return &LogUIManager{
		messages: make([]string, 0, maxMessages),
		current:  -1,
		max:      maxMessages,
		label:    label,
		upBtn:    upBtn,
		downBtn:  downBtn,
	}
}

// AddLogMessage appends a message and shows it.
func (lm *LogUIManager) AddLogMessage(message string) {
	lm.messages = append(lm.messages, message)
	if len(lm.messages) > lm.max {
		lm.messages = lm.messages[len(lm.messages)-lm.max:]
	}
	lm.current = len(lm.messages) - 1
	lm.UpdateLogDisplay()
}

// Current returns the message on display, or "" when there is none.
func (lm *LogUIManager) Current() string {
	if lm.current < 0 || lm.current >= len(lm.messages) {
		return ""
	}
	return lm.messages[lm.current]
}

// UpdateLogDisplay redraws the label and the paging buttons.
func (lm *LogUIManager) UpdateLogDisplay() {
	if lm.label == nil {
		return
	}
	if len(lm.messages) == 0 {
		lm.label.SetText("")
		setEnabled(lm.upBtn, false)
		setEnabled(lm.downBtn, false)
		return
	}
	lm.label.SetText(fmt.Sprintf("[%d/%d] %s", lm.current+1, len(lm.messages), lm.messages[lm.current]))
	setEnabled(lm.upBtn, lm.current > 0)
	setEnabled(lm.downBtn, lm.current < len(lm.messages)-1)
}

// ShowPreviousLogMessage pages back to an older message.
func (lm *LogUIManager) ShowPreviousLogMessage() {
	if lm.current <= 0 {
		return
	}
	lm.current--
	lm.UpdateLogDisplay()
}

// ShowNextLogMessage pages forward to a newer message.
func (lm *LogUIManager) ShowNextLogMessage() {
	if lm.current >= len(lm.messages)-1 {
		return
	}
	lm.current++
	lm.UpdateLogDisplay()
}

func setEnabled(b *widget.Button, on bool) {
	if b == nil {
		return
	}
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}
