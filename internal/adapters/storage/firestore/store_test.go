package firestore

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/voicenote/internal/domain"
)

func TestNoteDocRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 30, 15, 123_000_000, time.FixedZone("ART", -3*3600))
	note := &domain.Note{
		Title:      "Groceries",
		Transcript: "buy milk",
		Summary:    "Buy milk",
		UserID:     "u1",
		CreatedAt:  created,
	}

	doc := toNoteDoc(note)
	assert.Equal(t, "2024-05-01T13:30:15.123Z", doc.CreatedAt)
	assert.Equal(t, "", doc.CorrectedTranscript)

	back, err := doc.toNote("n1")
	require.NoError(t, err)
	assert.Equal(t, domain.NoteID("n1"), back.ID)
	assert.Equal(t, "Groceries", back.Title)
	assert.Equal(t, "buy milk", back.Transcript)
	assert.Equal(t, "Buy milk", back.Summary)
	assert.Equal(t, domain.UserID("u1"), back.UserID)
	assert.True(t, created.Equal(back.CreatedAt))
}

func TestNoteDocWritesEmptyCorrectedTranscript(t *testing.T) {
	tag, ok := fieldTag(noteDoc{}, "CorrectedTranscript")
	require.True(t, ok)
	assert.Equal(t, "corrected_transcript", tag, "field must be written even when empty")
}

func TestNoteDocReadsISOTimestamps(t *testing.T) {
	// as written by toISOString()
	doc := noteDoc{Title: "t", Transcript: "x", UserID: "u1", CreatedAt: "2024-01-02T03:04:05.678Z"}

	n, err := doc.toNote("n1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC), n.CreatedAt)

	_, err = noteDoc{CreatedAt: "yesterday"}.toNote("bad")
	assert.Error(t, err)
}

func TestCreatedAtSortsAsText(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := toNoteDoc(&domain.Note{CreatedAt: base}).CreatedAt
	later := toNoteDoc(&domain.Note{CreatedAt: base.Add(1500 * time.Millisecond)}).CreatedAt
	assert.Less(t, earlier, later)
}

func fieldTag(v any, name string) (string, bool) {
	f, ok := reflect.TypeOf(v).FieldByName(name)
	if !ok {
		return "", false
	}
	return f.Tag.Get("firestore"), true
}
