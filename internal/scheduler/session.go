package scheduler

import (
	"sync"

	"github.com/google/uuid"
)

// Session is the per-process ringing state: which alarms were dismissed and
// which delivered identifiers were already chained from. It is deliberately
// not persisted; after a restart every alarm resumes normal chain behavior.
type Session struct {
	mu        sync.Mutex
	dismissed map[uuid.UUID]struct{}
	handled   map[string]struct{}
}

func NewSession() *Session {
	return &Session{
		dismissed: make(map[uuid.UUID]struct{}),
		handled:   make(map[string]struct{}),
	}
}

// Dismiss marks the alarm's ringing episode terminated. The first call
// returns true; repeats are a no-op.
func (s *Session) Dismiss(alarm uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dismissed[alarm]; ok {
		return false
	}
	s.dismissed[alarm] = struct{}{}
	s.clearHandledLocked(alarm)
	return true
}

func (s *Session) Dismissed(alarm uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dismissed[alarm]
	return ok
}

// Reset opens a fresh episode for the alarm. Called on every replan, so an
// alarm dismissed earlier rings again on its next scheduling cycle.
func (s *Session) Reset(alarm uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dismissed, alarm)
	s.clearHandledLocked(alarm)
}

// MarkHandled records a delivered identifier and reports whether it was seen
// for the first time, guarding against duplicated delivery callbacks.
func (s *Session) MarkHandled(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handled[id]; ok {
		return false
	}
	s.handled[id] = struct{}{}
	return true
}

func (s *Session) clearHandledLocked(alarm uuid.UUID) {
	prefix := Prefix(alarm)
	for id := range s.handled {
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			delete(s.handled, id)
		}
	}
}
