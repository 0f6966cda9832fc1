package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PabloGalante/voicenote/internal/app/contact"
	"github.com/PabloGalante/voicenote/internal/app/notes"
	"github.com/PabloGalante/voicenote/internal/app/summary"
	"github.com/PabloGalante/voicenote/internal/app/transcription"
	"github.com/PabloGalante/voicenote/internal/domain"
	"github.com/PabloGalante/voicenote/internal/observability"
)

const serviceName = "AI Voice Note Backend"

// Services groups the application services behind the relay.
type Services struct {
	Notes         *notes.Service
	Contact       *contact.Service
	Summary       *summary.Service
	Transcription *transcription.Service
}

// Options configures the relay surface.
type Options struct {
	APIKey         string
	Production     bool
	CORS           bool
	MaxJSONBytes   int64
	MaxUploadBytes int64
}

type Server struct {
	svc     Services
	opts    Options
	started time.Time
}

// NewServer builds the routed handler with its middleware chain.
func NewServer(svc Services, opts Options) http.Handler {
	if opts.MaxJSONBytes <= 0 {
		opts.MaxJSONBytes = 1 << 20
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}

	s := &Server{svc: svc, opts: opts, started: time.Now()}
	mux := http.NewServeMux()

	// liveness, no key required
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /summary", s.handleSummary)
	mux.HandleFunc("POST /save-note", s.handleSaveNote)
	mux.HandleFunc("GET /notes", s.handleListNotes)
	mux.HandleFunc("DELETE /note/{id}", s.handleDeleteNote)
	mux.HandleFunc("POST /contact", s.handleContact)

	middlewares := []func(http.Handler) http.Handler{
		withAPIKey(opts.APIKey, "/health", "/"),
	}
	if opts.CORS {
		middlewares = append(middlewares, withCORS)
	}
	middlewares = append(middlewares, withRecover, withLogging, withRequestID)

	return chainMiddlewares(mux, middlewares...)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type summaryRequest struct {
	Transcript string `json:"transcript"`
}

type saveNoteRequest struct {
	Title               string `json:"title"`
	Transcript          string `json:"transcript"`
	CorrectedTranscript string `json:"corrected_transcript,omitempty"`
	Summary             string `json:"summary"`
	UserID              string `json:"userId"`
}

type saveNoteResponse struct {
	Message string `json:"message"`
	NoteID  string `json:"noteId"`
}

type noteResponse struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Transcript          string    `json:"transcript"`
	CorrectedTranscript string    `json:"corrected_transcript"`
	Summary             string    `json:"summary"`
	UserID              string    `json:"userId"`
	CreatedAt           time.Time `json:"createdAt"`
}

type deleteNoteResponse struct {
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}

type contactRequest struct {
	Email       string `json:"email"`
	CarbonCopy  string `json:"carbonCopy,omitempty"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	UserID      string `json:"userId,omitempty"`
}

type contactResponse struct {
	Message   string `json:"message"`
	ContactID string `json:"contactId"`
}

type transcriptResponse struct {
	Transcript string `json:"transcript"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   serviceName,
		"status": "ok",
		"uptime": time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// room for the multipart envelope around the file itself
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+(64<<10))

	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			tooLarge(w, "audio file exceeds upload limit")
			return
		}
		badRequest(w, "No audio file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		badRequest(w, "No audio file uploaded")
		return
	}
	defer file.Close()

	if header.Size > s.opts.MaxUploadBytes {
		tooLarge(w, "audio file exceeds upload limit")
		return
	}

	text, err := s.svc.Transcription.Transcribe(r.Context(), transcription.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transcriptResponse{Transcript: text})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	res, err := s.svc.Summary.Generate(r.Context(), req.Transcript)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSaveNote(w http.ResponseWriter, r *http.Request) {
	var req saveNoteRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	out, err := s.svc.Notes.SaveNote(r.Context(), notes.SaveNoteInput{
		Title:               req.Title,
		Transcript:          req.Transcript,
		CorrectedTranscript: req.CorrectedTranscript,
		Summary:             req.Summary,
		UserID:              domain.UserID(req.UserID),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, saveNoteResponse{
		Message: "Note saved successfully",
		NoteID:  string(out.NoteID),
	})
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if strings.TrimSpace(userID) == "" {
		badRequest(w, "userId is required")
		return
	}

	list, err := s.svc.Notes.ListNotes(r.Context(), domain.UserID(userID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toNotesResponse(list))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if strings.TrimSpace(id) == "" {
		badRequest(w, "Note ID is required")
		return
	}

	deleted, err := s.svc.Notes.DeleteNote(r.Context(), domain.NoteID(id))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	msg := "Note deleted successfully"
	if !deleted {
		msg = "Note already deleted"
	}
	writeJSON(w, http.StatusOK, deleteNoteResponse{Message: msg, Deleted: deleted})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	id, err := s.svc.Contact.Submit(r.Context(), contact.SubmitInput{
		Email:       req.Email,
		CarbonCopy:  req.CarbonCopy,
		Subject:     req.Subject,
		Description: req.Description,
		UserID:      req.UserID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contactResponse{
		Message:   "Contact submitted successfully",
		ContactID: string(id),
	})
}

// ─────────────────────────────────────────────
// Note helpers
// ─────────────────────────────────────────────

func toNoteResponse(n *domain.Note) noteResponse {
	return noteResponse{
		ID:                  string(n.ID),
		Title:               n.Title,
		Transcript:          n.Transcript,
		CorrectedTranscript: n.CorrectedTranscript,
		Summary:             n.Summary,
		UserID:              string(n.UserID),
		CreatedAt:           n.CreatedAt.UTC(),
	}
}

func toNotesResponse(list []*domain.Note) []noteResponse {
	out := make([]noteResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toNoteResponse(n))
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

// decodeJSON enforces the JSON body limit. It writes the error response itself and reports success.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			tooLarge(w, "request body too large")
			return false
		}
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := observability.LoggerFromContext(r.Context())

	var perr *domain.UnparseableError
	switch {
	case errors.Is(err, domain.ErrValidation):
		badRequest(w, publicMessage(err, domain.ErrValidation))

	case errors.Is(err, domain.ErrUnsupportedAudio):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   transcription.UnsupportedFormatMessage(),
			Details: err.Error(),
		})

	case errors.Is(err, domain.ErrNotConfigured):
		log.Error("upstream not configured", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "Server missing OPENAI_API_KEY. Please set it in .env and restart the server.",
		})

	case errors.As(err, &perr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "AI did not return valid JSON",
			Raw:   perr.Raw,
		})

	case errors.Is(err, domain.ErrMalformedUpstream):
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error: "AI summary failed: unexpected response format",
		})

	case errors.Is(err, domain.ErrUpstream):
		resp := errorResponse{Error: "upstream request failed"}
		if !s.opts.Production {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusBadGateway, resp)

	default:
		log.Error("request failed", "error", err)
		s.internalError(w, err)
	}
}

// publicMessage strips the sentinel prefix so clients see only the detail.
func publicMessage(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func tooLarge(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: msg})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: "internal server error"}
	if !s.opts.Production && err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}
