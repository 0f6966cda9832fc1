package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/voicenote/internal/domain"
)

// ContactStore keeps support tickets in memory.
type ContactStore struct {
	mu       sync.RWMutex
	messages map[domain.ContactID]domain.ContactMessage
}

func NewContactStore() *ContactStore {
	return &ContactStore{
		messages: make(map[domain.ContactID]domain.ContactMessage),
	}
}

func (s *ContactStore) AddContact(_ context.Context, msg *domain.ContactMessage) (domain.ContactID, error) {
	if msg == nil {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := *msg
	if m.ID == "" {
		m.ID = domain.ContactID(uuid.NewString())
	}
	s.messages[m.ID] = m
	return m.ID, nil
}

// Get returns a stored ticket. Used by tests and the local dev server.
func (s *ContactStore) Get(id domain.ContactID) (domain.ContactMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	return m, ok
}

// Len reports how many tickets are stored.
func (s *ContactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
