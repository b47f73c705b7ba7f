// Package repository persists registrations. Every event gets its own set of
// tables derived from its compiled storage type; the SQL stores create them
// on Prepare and read and write them without an ORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
)

// ErrUnknownEvent is returned for an event that was never prepared.
var ErrUnknownEvent = errors.New("event not prepared")

// MemoryStore keeps registrations in process memory. It is used by tests
// and by the development server when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]*schema.Registration
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: map[string][]*schema.Registration{}}
}

// Prepare registers an event. Preparing an event twice keeps its data.
func (s *MemoryStore) Prepare(_ context.Context, eventID string, _ *schema.StorageType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		s.events[eventID] = nil
	}
	return nil
}

// ListRegistrations returns the registrations of the event in insertion order.
func (s *MemoryStore) ListRegistrations(_ context.Context, eventID string) ([]*schema.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regs, ok := s.events[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, eventID)
	}
	return append([]*schema.Registration(nil), regs...), nil
}

// InsertRegistration appends reg to the event.
func (s *MemoryStore) InsertRegistration(_ context.Context, eventID string, reg *schema.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	regs, ok := s.events[eventID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, eventID)
	}
	for _, r := range regs {
		if r.ID == reg.ID {
			return fmt.Errorf("registration %s already exists", reg.ID)
		}
	}
	s.events[eventID] = append(regs, reg)
	return nil
}
