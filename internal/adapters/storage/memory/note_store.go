package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/voicenote/internal/domain"
)

// NoteStore is a simple in-memory implementation of domain.NoteStore.
// It is NOT persistent and is only suitable for development / local mode.
type NoteStore struct {
	mu       sync.RWMutex
	seq      uint64
	notes    map[domain.NoteID]*storedNote
	byUserID map[domain.UserID][]domain.NoteID
}

type storedNote struct {
	note domain.Note
	seq  uint64
}

// NewNoteStore creates a new in-memory NoteStore.
func NewNoteStore() *NoteStore {
	return &NoteStore{
		notes:    make(map[domain.NoteID]*storedNote),
		byUserID: make(map[domain.UserID][]domain.NoteID),
	}
}

// AddNote stores a copy of note and returns its id. An id is generated when empty.
func (s *NoteStore) AddNote(_ context.Context, note *domain.Note) (domain.NoteID, error) {
	if note == nil {
		return "", fmt.Errorf("%w: note is nil", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := *note
	if n.ID == "" {
		n.ID = domain.NoteID(uuid.NewString())
	}
	s.seq++
	s.notes[n.ID] = &storedNote{note: n, seq: s.seq}
	s.byUserID[n.UserID] = append(s.byUserID[n.UserID], n.ID)

	return n.ID, nil
}

// ListNotesByUser returns the user's notes, newest first.
// Notes created at the same instant come back in reverse insertion order.
func (s *NoteStore) ListNotesByUser(_ context.Context, userID domain.UserID) ([]*domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUserID[userID]
	stored := make([]*storedNote, 0, len(ids))
	for _, id := range ids {
		if sn, ok := s.notes[id]; ok {
			stored = append(stored, sn)
		}
	}

	sort.SliceStable(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if !a.note.CreatedAt.Equal(b.note.CreatedAt) {
			return a.note.CreatedAt.After(b.note.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*domain.Note, 0, len(stored))
	for _, sn := range stored {
		n := sn.note
		out = append(out, &n)
	}
	return out, nil
}

// DeleteNote removes the note if present and reports whether it did.
func (s *NoteStore) DeleteNote(_ context.Context, id domain.NoteID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, ok := s.notes[id]
	if !ok {
		return false, nil
	}
	delete(s.notes, id)

	ids := s.byUserID[sn.note.UserID]
	for i, other := range ids {
		if other == id {
			s.byUserID[sn.note.UserID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.byUserID[sn.note.UserID]) == 0 {
		delete(s.byUserID, sn.note.UserID)
	}
	return true, nil
}
