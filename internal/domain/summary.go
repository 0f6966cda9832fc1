package domain

import "strings"

// SummaryRequest is the body of POST /summary.
type SummaryRequest struct {
	Transcript string `json:"transcript"`
}

// SummaryResult is what the model returns for a transcript.
// Title and Summary are optional on the wire; see Complete.
type SummaryResult struct {
	Title               *string  `json:"title,omitempty"`
	Summary             *string  `json:"summary,omitempty"`
	CorrectedTranscript *string  `json:"corrected_transcript,omitempty"`
	ActionItems         []string `json:"action_items"`
}

// Complete reports whether both title and summary are present and non-empty.
// An incomplete result is handled like a failed call.
func (r SummaryResult) Complete() bool {
	return nonEmpty(r.Title) && nonEmpty(r.Summary)
}

// Corrected returns the corrected transcript, if the model produced one.
func (r SummaryResult) Corrected() (string, bool) {
	if !nonEmpty(r.CorrectedTranscript) {
		return "", false
	}
	return *r.CorrectedTranscript, true
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// Ptr is a small helper for optional string fields.
func Ptr(s string) *string {
	return &s
}

// PromptTemplate is the pair of messages sent to the model for a summary.
// User may contain the TranscriptPlaceholder, replaced by the transcript.
type PromptTemplate struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

const TranscriptPlaceholder = "{{transcript}}"

// Render substitutes the transcript into the user message.
// Templates without the placeholder get the transcript appended.
func (t PromptTemplate) Render(transcript string) (system, user string) {
	if strings.Contains(t.User, TranscriptPlaceholder) {
		return t.System, strings.ReplaceAll(t.User, TranscriptPlaceholder, transcript)
	}
	return t.System, t.User + "\n\nTranscript:\n" + transcript
}
