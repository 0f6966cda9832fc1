package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/PabloGalante/voicenote/internal/domain"
	"github.com/PabloGalante/voicenote/internal/observability"
)

// AcceptedFormats lists the container formats the speech API understands.
var AcceptedFormats = []string{"mp3", "mp4", "mpeg", "mpga", "m4a", "ogg", "opus", "flac", "wav", "webm"}

// Service relays uploaded audio to the speech-to-text port.
type Service struct {
	speech domain.Transcriber
}

// NewService builds the service. A nil transcriber means the speech key is missing.
func NewService(speech domain.Transcriber) *Service {
	return &Service{speech: speech}
}

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Transcribe checks that the upload is audio and returns the recognized text.
func (s *Service) Transcribe(ctx context.Context, up Upload) (string, error) {
	if up.Body == nil {
		return "", fmt.Errorf("%w: no audio file uploaded", domain.ErrValidation)
	}
	if !IsAudio(up.ContentType) {
		return "", fmt.Errorf("%w: only audio files are allowed", domain.ErrUnsupportedAudio)
	}
	if s.speech == nil {
		return "", fmt.Errorf("%w: speech provider key is missing", domain.ErrNotConfigured)
	}

	filename := up.Filename
	if strings.TrimSpace(filename) == "" {
		filename = fmt.Sprintf("audio%d%s", time.Now().UnixMilli(), extensionFor(up.ContentType))
	}

	log := observability.LoggerFromContext(ctx).With("filename", filename, "size", up.Size)
	start := time.Now()

	text, err := s.speech.Transcribe(ctx, filename, up.Body)
	if err != nil {
		log.Error("transcription failed", "error", err)
		if errors.Is(err, domain.ErrUnsupportedAudio) || errors.Is(err, domain.ErrNotConfigured) || errors.Is(err, domain.ErrUpstream) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	log.Info("transcription done", "duration", time.Since(start), "chars", len(text))
	return text, nil
}

// IsAudio accepts any audio/* media type, with or without parameters.
func IsAudio(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
	}
	return strings.HasPrefix(strings.ToLower(mt), "audio")
}

// UnsupportedFormatMessage is the user-facing hint for rejected uploads.
func UnsupportedFormatMessage() string {
	return "Unsupported audio format. Please use one of: " + strings.Join(AcceptedFormats, ", ")
}

func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ".m4a"
	}
	return exts[0]
}
