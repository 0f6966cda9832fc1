package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/PabloGalante/voicenote/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	transcript TEXT NOT NULL DEFAULT '',
	corrected_transcript TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	carbon_copy TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL,
	description TEXT NOT NULL,
	user_id TEXT,
	created_at INTEGER NOT NULL
);
`

// Store implements domain.NoteStore and domain.ContactStore on a local SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AddNote(ctx context.Context, note *domain.Note) (domain.NoteID, error) {
	id := note.ID
	if id == "" {
		id = domain.NoteID(uuid.NewString())
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, title, transcript, corrected_transcript, summary, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(id), note.Title, note.Transcript, note.CorrectedTranscript, note.Summary,
		string(note.UserID), note.CreatedAt.UTC().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert note: %w", err)
	}
	return id, nil
}

// ListNotesByUser orders by created_at, then by rowid so equal timestamps come back newest insert first.
func (s *Store) ListNotesByUser(ctx context.Context, userID domain.UserID) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, transcript, corrected_transcript, summary, user_id, created_at
		FROM notes
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, string(userID))
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		var n domain.Note
		var id, uid string
		var createdAt int64
		if err := rows.Scan(&id, &n.Title, &n.Transcript, &n.CorrectedTranscript, &n.Summary, &uid, &createdAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.ID = domain.NoteID(id)
		n.UserID = domain.UserID(uid)
		n.CreatedAt = time.Unix(0, createdAt).UTC()
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

func (s *Store) DeleteNote(ctx context.Context, id domain.NoteID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, string(id))
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete note rows: %w", err)
	}
	return n > 0, nil
}

func (s *Store) AddContact(ctx context.Context, msg *domain.ContactMessage) (domain.ContactID, error) {
	id := msg.ID
	if id == "" {
		id = domain.ContactID(uuid.NewString())
	}

	var userID sql.NullString
	if msg.UserID != nil {
		userID = sql.NullString{String: string(*msg.UserID), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, email, carbon_copy, subject, description, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(id), msg.Email, msg.CarbonCopy, msg.Subject, msg.Description, userID, msg.CreatedAt.UTC().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert contact: %w", err)
	}
	return id, nil
}

// CountContacts returns the number of stored contact tickets.
func (s *Store) CountContacts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}
