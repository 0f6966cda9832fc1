package domain

import "strings"

// Note is a persisted voice note. CreatedAt is assigned by the server and never changes.
type Note struct {
	ID                  NoteID    `json:"id"`
	Title               string    `json:"title"`
	Transcript          string    `json:"transcript"`
	CorrectedTranscript string    `json:"corrected_transcript"`
	Summary             string    `json:"summary"`
	UserID              UserID    `json:"userId"`
	CreatedAt           Timestamp `json:"createdAt"`
}

// DisplayTranscript prefers the corrected transcript when there is one.
func (n *Note) DisplayTranscript() string {
	if strings.TrimSpace(n.CorrectedTranscript) != "" {
		return n.CorrectedTranscript
	}
	return n.Transcript
}

// ContactMessage is a support ticket sent from the settings screen.
type ContactMessage struct {
	ID          ContactID `json:"id"`
	Email       string    `json:"email"`
	CarbonCopy  string    `json:"carbonCopy"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	UserID      *UserID   `json:"userId"`
	CreatedAt   Timestamp `json:"createdAt"`
}
