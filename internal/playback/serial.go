package playback

import "sync"

// serial runs submitted functions one at a time, in submission order.
// A function submitted while another is running (including from inside that
// function) is queued and run by whichever goroutine is already draining the
// queue, so work never overlaps and never re-enters.
type serial struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

func (s *serial) Do(f func()) {
	s.mu.Lock()
	s.queue = append(s.queue, f)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()
		next()
		s.mu.Lock()
	}
	s.running = false
	s.mu.Unlock()
}
