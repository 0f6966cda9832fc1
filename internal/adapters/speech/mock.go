package speech

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
)

// MockTranscriber reports the upload size instead of recognizing speech. Local mode only.
type MockTranscriber struct{}

func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

func (m *MockTranscriber) Transcribe(_ context.Context, filename string, audio io.Reader) (string, error) {
	n, err := io.Copy(io.Discard, audio)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mock transcript of %s (%d bytes)", filepath.Base(filename), n), nil
}
