package connectivity

import (
	"sync"
)

// Monitor reports reachability and notifies listeners about changes.
type Monitor interface {
	IsOnline() bool
	// OnChange registers fn and returns a function that removes it.
	OnChange(fn func(online bool)) (cancel func())
}

// state holds the online flag and its listeners.
type state struct {
	mu        sync.Mutex
	online    bool
	nextID    int
	listeners map[int]func(bool)
}

func (s *state) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *state) OnChange(fn func(online bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[int]func(bool))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
		})
	}
}

// set stores online and reports whether it changed. Listeners are called
// outside the lock.
func (s *state) set(online bool) bool {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return false
	}
	s.online = online
	fns := make([]func(bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
	return true
}

// Manual is a Monitor whose state is set by the caller. It backs the
// --offline flag and tests.
type Manual struct {
	state
}

func NewManual(online bool) *Manual {
	m := &Manual{}
	m.online = online
	return m
}

// Set changes the state, notifying listeners on a transition.
func (m *Manual) Set(online bool) {
	m.set(online)
}
