// Package client talks to the voicenote relay: notes, summaries, uploads and contact tickets.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PabloGalante/voicenote/internal/domain"
)

// ErrEmptyResponse means a 2xx response carried no JSON object (for example a literal null).
var ErrEmptyResponse = errors.New("response has no JSON object")

// APIError is a non-2xx answer from the relay.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a client for baseURL. Every request carries apiKey in x-api-key.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ─────────────────────────────────────────────
// Wire types
// ─────────────────────────────────────────────

type SaveNoteRequest struct {
	Title               string  `json:"title"`
	Transcript          string  `json:"transcript"`
	CorrectedTranscript *string `json:"corrected_transcript,omitempty"`
	Summary             string  `json:"summary"`
	UserID              string  `json:"userId"`
}

type SaveNoteResponse struct {
	Message string `json:"message"`
	NoteID  string `json:"noteId"`
}

type ContactRequest struct {
	Email       string `json:"email"`
	CarbonCopy  string `json:"carbonCopy,omitempty"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	UserID      string `json:"userId,omitempty"`
}

type ContactResponse struct {
	Message   string `json:"message"`
	ContactID string `json:"contactId"`
}

type deleteResponse struct {
	Message string `json:"message"`
	Deleted *bool  `json:"deleted"`
}

// ─────────────────────────────────────────────
// Operations
// ─────────────────────────────────────────────

func (c *Client) SaveNote(ctx context.Context, in SaveNoteRequest) (SaveNoteResponse, error) {
	var out SaveNoteResponse
	err := c.doJSON(ctx, http.MethodPost, "save-note", nil, in, &out)
	return out, err
}

// ListNotes returns the user's notes, newest first. No notes is an empty slice.
func (c *Client) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	var out []domain.Note
	if err := c.doJSON(ctx, http.MethodGet, "notes", url.Values{"userId": {userID}}, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Note{}
	}
	return out, nil
}

// DeleteNote returns true when this call removed the note and false with a nil
// error when it was already gone. Transport failures and non-2xx answers are errors.
func (c *Client) DeleteNote(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, errors.New("note id is required")
	}
	var out deleteResponse
	if err := c.doJSON(ctx, http.MethodDelete, "note/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return false, err
	}
	// relays that predate the flag only answer 200 on success
	if out.Deleted == nil {
		return true, nil
	}
	return *out.Deleted, nil
}

// GenerateSummary makes one /summary call. See SummaryClient for the bounded, validated version.
func (c *Client) GenerateSummary(ctx context.Context, transcript string) (domain.SummaryResult, error) {
	var out *domain.SummaryResult
	if err := c.doJSON(ctx, http.MethodPost, "summary", nil, domain.SummaryRequest{Transcript: transcript}, &out); err != nil {
		return domain.SummaryResult{}, err
	}
	if out == nil {
		return domain.SummaryResult{}, ErrEmptyResponse
	}
	return *out, nil
}

// UploadAudio posts audio as multipart field "audio" and returns the transcript.
func (c *Client) UploadAudio(ctx context.Context, filename string, audio io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", audioContentType(filename))
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "upload", nil, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Transcript, nil
}

func (c *Client) SubmitContact(ctx context.Context, in ContactRequest) (ContactResponse, error) {
	var out ContactResponse
	err := c.doJSON(ctx, http.MethodPost, "contact", nil, in, &out)
	return out, err
}

// Health reports nil when the relay answers /health with status ok.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "health", nil, nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("relay status %q", out.Status)
	}
	return nil
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if strings.Contains(c.baseURL.Hostname(), "ngrok") {
		req.Header.Set("ngrok-skip-browser-warning", "1")
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := validateResponse(resp.StatusCode, data); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// validateResponse turns a non-2xx status into *APIError, using the body's error or message field when present.
func validateResponse(status int, body []byte) error {
	if status >= 200 && status <= 299 {
		return nil
	}
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := fmt.Sprintf("HTTP %d", status)
	if err := json.Unmarshal(body, &e); err == nil {
		switch {
		case e.Error != "":
			msg = e.Error
		case e.Message != "":
			msg = e.Message
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}

func audioContentType(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); strings.HasPrefix(ct, "audio/") {
		return ct
	}
	return "audio/m4a"
}
