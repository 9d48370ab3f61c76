// Package notify holds the single-slot message surface shared by every flow.
// A new message replaces the pending one; nothing is queued.
package notify

import (
	"strings"
	"sync"
)

// Notifier is the write side used by flows.
type Notifier interface {
	Show(message string)
}

type Surface struct {
	mu        sync.Mutex
	message   string
	pending   bool
	nextID    int
	listeners map[int]func(message string, pending bool)
}

func New() *Surface {
	return &Surface{}
}

// Show replaces any pending message. Blank messages are ignored.
func (s *Surface) Show(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	s.mu.Lock()
	s.message = message
	s.pending = true
	listeners := s.snapshot()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(message, true)
	}
}

// Close acknowledges the pending message. Calling it with nothing pending is a no-op.
func (s *Surface) Close() {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return
	}
	s.message = ""
	s.pending = false
	listeners := s.snapshot()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn("", false)
	}
}

func (s *Surface) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message, s.pending
}

// Subscribe registers fn for every change; the returned func unregisters it.
func (s *Surface) Subscribe(fn func(message string, pending bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = map[int]func(string, bool){}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Surface) snapshot() []func(string, bool) {
	out := make([]func(string, bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}
