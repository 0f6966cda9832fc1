package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/voicenote/internal/domain"
)

const (
	notesCollection    = "notes"
	contactsCollection = "contacts"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (VOICENOTE_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) notesCol() *firestore.CollectionRef {
	return s.client.Collection(notesCollection)
}

func (s *Store) noteDoc(id domain.NoteID) *firestore.DocumentRef {
	return s.notesCol().Doc(string(id))
}

func (s *Store) contactsCol() *firestore.CollectionRef {
	return s.client.Collection(contactsCollection)
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

// createdAtLayout is ISO-8601 in UTC with fixed millisecond width, so string
// order in OrderBy("createdAt") is chronological.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// noteDoc keeps the field names and value types of the existing notes
// collection: createdAt is ISO-8601 text and missing optional fields are "".
type noteDoc struct {
	Title               string `firestore:"title"`
	Transcript          string `firestore:"transcript"`
	CorrectedTranscript string `firestore:"corrected_transcript"`
	Summary             string `firestore:"summary"`
	UserID              string `firestore:"userId"`
	CreatedAt           string `firestore:"createdAt"`
}

func toNoteDoc(n *domain.Note) noteDoc {
	return noteDoc{
		Title:               n.Title,
		Transcript:          n.Transcript,
		CorrectedTranscript: n.CorrectedTranscript,
		Summary:             n.Summary,
		UserID:              string(n.UserID),
		CreatedAt:           n.CreatedAt.UTC().Format(createdAtLayout),
	}
}

func (d noteDoc) toNote(id string) (*domain.Note, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("note %s: createdAt %q: %w", id, d.CreatedAt, err)
	}
	return &domain.Note{
		ID:                  domain.NoteID(id),
		Title:               d.Title,
		Transcript:          d.Transcript,
		CorrectedTranscript: d.CorrectedTranscript,
		Summary:             d.Summary,
		UserID:              domain.UserID(d.UserID),
		CreatedAt:           createdAt.UTC(),
	}, nil
}

type contactDoc struct {
	Email       string  `firestore:"email"`
	CarbonCopy  string  `firestore:"carbonCopy"`
	Subject     string  `firestore:"subject"`
	Description string  `firestore:"description"`
	UserID      *string `firestore:"userId"`
	CreatedAt   string  `firestore:"createdAt"`
}

// ─────────────────────────────────────────
// NoteStore implementation
// ─────────────────────────────────────────

func (s *Store) AddNote(ctx context.Context, note *domain.Note) (domain.NoteID, error) {
	if note == nil {
		return "", fmt.Errorf("%w: note is nil", domain.ErrValidation)
	}
	doc := toNoteDoc(note)

	ref := s.notesCol().NewDoc()
	if note.ID != "" {
		ref = s.noteDoc(note.ID)
	}

	if _, err := ref.Create(ctx, doc); err != nil {
		return "", fmt.Errorf("firestore AddNote: %w", err)
	}
	return domain.NoteID(ref.ID), nil
}

func (s *Store) ListNotesByUser(ctx context.Context, userID domain.UserID) ([]*domain.Note, error) {
	q := s.notesCol().Where("userId", "==", string(userID)).OrderBy("createdAt", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*domain.Note{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListNotesByUser: %w", err)
		}

		var doc noteDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode noteDoc: %w", err)
		}

		note, err := doc.toNote(snap.Ref.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	return out, nil
}

// DeleteNote uses an Exists precondition so a missing document is reported as not deleted.
func (s *Store) DeleteNote(ctx context.Context, id domain.NoteID) (bool, error) {
	if id == "" {
		return false, nil
	}
	_, err := s.noteDoc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("firestore DeleteNote: %w", err)
	}
	return true, nil
}

// ─────────────────────────────────────────
// ContactStore implementation
// ─────────────────────────────────────────

func (s *Store) AddContact(ctx context.Context, msg *domain.ContactMessage) (domain.ContactID, error) {
	var userID *string
	if msg.UserID != nil {
		v := string(*msg.UserID)
		userID = &v
	}

	doc := contactDoc{
		Email:       msg.Email,
		CarbonCopy:  msg.CarbonCopy,
		Subject:     msg.Subject,
		Description: msg.Description,
		UserID:      userID,
		CreatedAt:   msg.CreatedAt.UTC().Format(createdAtLayout),
	}

	ref := s.contactsCol().NewDoc()
	if _, err := ref.Create(ctx, doc); err != nil {
		return "", fmt.Errorf("firestore AddContact: %w", err)
	}
	return domain.ContactID(ref.ID), nil
}
