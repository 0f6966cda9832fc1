package domain

import (
	"context"
	"io"
)

// LLMClient defines how the core application interacts with an LLM service.
// Complete sends one system prompt plus one user message and returns the raw text reply.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Transcriber turns an uploaded audio file into text (Whisper-style API).
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// NoteStore is the document-store abstraction behind the notes endpoints.
// ListNotesByUser filters by userId and orders by createdAt, newest first.
// DeleteNote reports whether a document was removed; deleting a missing id is not an error.
type NoteStore interface {
	AddNote(ctx context.Context, note *Note) (NoteID, error)
	ListNotesByUser(ctx context.Context, userID UserID) ([]*Note, error)
	DeleteNote(ctx context.Context, id NoteID) (bool, error)
}

// ContactStore persists support tickets.
type ContactStore interface {
	AddContact(ctx context.Context, msg *ContactMessage) (ContactID, error)
}

// PromptSource supplies the current summary prompt. Implementations may reload it at runtime.
type PromptSource interface {
	SummaryPrompt() PromptTemplate
}
