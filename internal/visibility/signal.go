// Package visibility tracks whether the surface hosting the conversation
// views is currently foreground, and notifies subscribers on transitions.
package visibility

import "sync"

// Handler is invoked with the new visibility value on every transition.
type Handler func(visible bool)

// Signal is a process-wide observable boolean. The host environment is the
// only writer; every open conversation's scheduler subscribes to it.
type Signal struct {
	mu       sync.RWMutex
	visible  bool
	nextID   int
	handlers map[int]Handler
}

// NewSignal returns a Signal that starts visible.
func NewSignal() *Signal {
	return &Signal{
		visible:  true,
		handlers: make(map[int]Handler),
	}
}

// Visible reports the current value.
func (s *Signal) Visible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible
}

// Set updates the value and notifies subscribers if it changed.
func (s *Signal) Set(visible bool) {
	s.mu.Lock()
	if s.visible == visible {
		s.mu.Unlock()
		return
	}
	s.visible = visible
	handlers := make([]Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	// Invoke handlers outside the lock to avoid deadlocks.
	for _, h := range handlers {
		h(visible)
	}
}

// Subscribe registers a handler for transitions and returns a cancel
// function. Cancel is idempotent and safe to call after the handler has
// already been removed.
func (s *Signal) Subscribe(h Handler) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// SubscriberCount returns the number of active subscribers.
func (s *Signal) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}
