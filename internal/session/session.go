// Package session owns the live registration forms of a gateway. Each form
// gets its own reference data, location acquirer and submission coordinator.
package session

import (
	"context"
	"sync"
	"time"

	"ehopa/internal/location"
	"ehopa/internal/registration/service"
)

// Session is one agent's form.
type Session struct {
	ID        string
	CreatedAt time.Time

	bridge      *location.Bridge
	acquirer    *location.Acquirer
	coordinator *service.Coordinator

	mu      sync.Mutex
	handoff string
	loadErr error
}

func (s *Session) Form() *service.Form {
	return s.coordinator.Form()
}

func (s *Session) Coordinator() *service.Coordinator {
	return s.coordinator
}

func (s *Session) Acquirer() *location.Acquirer {
	return s.acquirer
}

// Bridge is the channel through which the device answers location requests.
func (s *Session) Bridge() *location.Bridge {
	return s.bridge
}

// Launch stores link as the pending handoff for the UI to open. It makes a
// Session usable as a whatsapp.Launcher.
func (s *Session) Launch(_ context.Context, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handoff = link
	return nil
}

// Handoff returns the pending handoff link, if any.
func (s *Session) Handoff() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handoff
}

// ClearHandoff drops the pending link once the UI has opened it.
func (s *Session) ClearHandoff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handoff = ""
}

// LoadError is the last reference data failure, or nil.
func (s *Session) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *Session) setLoadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}
