package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/PabloGalante/voicenote/internal/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

// WhisperClient implements domain.Transcriber on the OpenAI audio transcription endpoint.
type WhisperClient struct {
	apiKey   string
	baseURL  string
	model    string
	language string
	client   *http.Client
}

type WhisperOptions struct {
	APIKey   string
	BaseURL  string
	Model    string // default whisper-1
	Language string // default en
	Timeout  time.Duration
}

func NewWhisperClient(opts WhisperOptions) (*WhisperClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", domain.ErrNotConfigured)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = "whisper-1"
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	return &WhisperClient{
		apiKey:   opts.APIKey,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		model:    opts.Model,
		language: opts.Language,
		client:   &http.Client{Timeout: opts.Timeout},
	}, nil
}

// Transcribe streams the audio as multipart form data. The filename matters:
// the API detects the container format from its extension.
func (c *WhisperClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	bodyReader, bodyWriter := io.Pipe()
	writer := multipart.NewWriter(bodyWriter)

	go func() {
		fw, err := writer.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			_ = bodyWriter.CloseWithError(err)
			return
		}
		if _, err := io.Copy(fw, audio); err != nil {
			_ = bodyWriter.CloseWithError(err)
			return
		}
		fields := [][2]string{
			{"model", c.model},
			{"response_format", "json"},
			{"temperature", "0.2"},
			{"language", c.language},
		}
		for _, f := range fields {
			if err := writer.WriteField(f[0], f[1]); err != nil {
				_ = bodyWriter.CloseWithError(err)
				return
			}
		}
		_ = bodyWriter.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", bodyReader)
	if err != nil {
		_ = bodyReader.Close()
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		_ = bodyReader.CloseWithError(err)
		return "", fmt.Errorf("%w: whisper request: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := errorMessage(b)
		if strings.Contains(msg, "Unrecognized file format") {
			return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedAudio, msg)
		}
		return "", fmt.Errorf("%w: whisper status %d: %s", domain.ErrUpstream, resp.StatusCode, msg)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode whisper response: %w", domain.ErrMalformedUpstream, err)
	}
	return parsed.Text, nil
}

// errorMessage pulls error.message out of an OpenAI error body, falling back to the raw text.
func errorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}
