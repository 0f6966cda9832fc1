package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/voicenote/internal/domain"
	"github.com/PabloGalante/voicenote/internal/observability"
)

// Service holds the logic of saving, listing and deleting notes.
type Service struct {
	store domain.NoteStore
	now   func() time.Time
}

// NewService creates a notes service from a NoteStore.
func NewService(store domain.NoteStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// WithClock overrides the creation-time source. Used in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type SaveNoteInput struct {
	Title               string
	Transcript          string
	CorrectedTranscript string
	Summary             string
	UserID              domain.UserID
}

type SaveNoteOutput struct {
	NoteID domain.NoteID
	Note   *domain.Note
}

// SaveNote requires a title, a user and at least one of the two transcripts.
// Nothing is written when validation fails.
func (s *Service) SaveNote(ctx context.Context, in SaveNoteInput) (*SaveNoteOutput, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID)

	if blank(in.Title) || blank(string(in.UserID)) ||
		(blank(in.Transcript) && blank(in.CorrectedTranscript)) {
		return nil, fmt.Errorf("%w: missing required fields", domain.ErrValidation)
	}

	note := &domain.Note{
		Title:               in.Title,
		Transcript:          in.Transcript,
		CorrectedTranscript: in.CorrectedTranscript,
		Summary:             in.Summary,
		UserID:              in.UserID,
		CreatedAt:           s.now().UTC(),
	}

	id, err := s.store.AddNote(ctx, note)
	if err != nil {
		log.Error("failed to save note", "error", err)
		return nil, fmt.Errorf("save note: %w", err)
	}
	note.ID = id

	log.Info("note saved", "note_id", id)
	return &SaveNoteOutput{NoteID: id, Note: note}, nil
}

// ListNotes returns the user's notes, newest first. Never nil on success.
func (s *Service) ListNotes(ctx context.Context, userID domain.UserID) ([]*domain.Note, error) {
	if blank(string(userID)) {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}

	notes, err := s.store.ListNotesByUser(ctx, userID)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list notes", "user_id", userID, "error", err)
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	return notes, nil
}

// DeleteNote is idempotent: a missing note yields (false, nil).
func (s *Service) DeleteNote(ctx context.Context, id domain.NoteID) (bool, error) {
	if blank(string(id)) {
		return false, fmt.Errorf("%w: note id is required", domain.ErrValidation)
	}

	log := observability.LoggerFromContext(ctx).With("note_id", id)

	deleted, err := s.store.DeleteNote(ctx, id)
	if err != nil {
		log.Error("failed to delete note", "error", err)
		return false, fmt.Errorf("delete note: %w", err)
	}
	if !deleted {
		log.Info("note already absent")
	}
	return deleted, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
