// Package controller carries playback commands from anything that wants to
// steer a story (keyboard, gestures, remote clients) to the playback engine.
package controller

import (
	"fmt"
	"strings"
	"sync"
)

// Command is a playback intent. Commands are not coalesced; receivers must
// handle repeats.
type Command int

const (
	Pause Command = iota
	Play
	Next
	Previous
)

var commandNames = map[Command]string{
	Pause:    "pause",
	Play:     "play",
	Next:     "next",
	Previous: "previous",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand converts a command name (as produced by String) back to a Command.
// "prev" and "resume" are accepted as aliases.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pause":
		return Pause, nil
	case "play", "resume":
		return Play, nil
	case "next":
		return Next, nil
	case "previous", "prev":
		return Previous, nil
	}
	return 0, fmt.Errorf("unknown playback command %q", s)
}

// Handler receives commands.
type Handler func(Command)

// Controller is a broadcast channel of commands. Handlers are called in
// emission order on the emitting goroutine.
type Controller struct {
	mu     sync.Mutex
	subs   map[int]Handler
	order  []int
	nextID int
	closed bool
}

// New creates a Controller with no subscribers.
func New() *Controller {
	return &Controller{subs: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (c *Controller) Subscribe(h Handler) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = h
	c.order = append(c.order, id)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[id]; !ok {
			return
		}
		delete(c.subs, id)
		for i, v := range c.order {
			if v == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// Emit delivers cmd to every current subscriber.
func (c *Controller) Emit(cmd Command) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	handlers := make([]Handler, 0, len(c.order))
	for _, id := range c.order {
		handlers = append(handlers, c.subs[id])
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(cmd)
	}
}

// Pause emits Pause.
func (c *Controller) Pause() { c.Emit(Pause) }

// Play emits Play.
func (c *Controller) Play() { c.Emit(Play) }

// Next emits Next.
func (c *Controller) Next() { c.Emit(Next) }

// Previous emits Previous.
func (c *Controller) Previous() { c.Emit(Previous) }

// Close drops all subscribers; later Emit and Subscribe calls do nothing.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.subs = make(map[int]Handler)
	c.order = nil
}

// Subscribers returns the number of registered handlers.
func (c *Controller) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
