// Package httpapi exposes the note service over HTTP:
//
//	GET  /api/load?path=notes/todo
//	POST /api/save   {"path": "notes/todo", "content": "..."}
//
// Both answer {"content": "...", "lastModified": "2006-01-02T15:04:05.000Z"}.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/pathnote/pkg/core"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// MaxBodyBytes bounds the save request body.
const MaxBodyBytes = 4 << 20

// Client-facing error messages. Internal causes are logged, never returned.
const (
	msgInvalidPath = "Invalid path input"
	msgInvalidBody = "Invalid input"
	msgLoadFailed  = "Failed to load content"
	msgSaveFailed  = "Failed to save content"
)

// NoteService is the part of core.Service the handlers need.
type NoteService interface {
	Load(ctx context.Context, path string) (core.Note, error)
	Save(ctx context.Context, path, content string) (core.Note, error)
}

// NoteResponse is the body of every successful response.
type NoteResponse struct {
	Content      string `json:"content"`
	LastModified string `json:"lastModified"`
}

// SaveRequest is the body of POST /api/save.
type SaveRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ErrorResponse is the body of every failed response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler routes the API and writes access logs.
type Handler struct {
	svc    NoteService
	logger *slog.Logger
	mux    *http.ServeMux
}

// New returns a Handler serving svc. A nil logger means slog.Default().
func New(svc NoteService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{svc: svc, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /api/load", h.load)
	h.mux.HandleFunc("POST /api/save", h.save)
	return h
}

// ServeHTTP assigns a request id, dispatches and logs the outcome.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(HeaderRequestID)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	w.Header().Set(HeaderRequestID, id)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	h.mux.ServeHTTP(rec, r.WithContext(withRequestID(r.Context(), id)))

	h.logger.Info("http request",
		"request_id", id,
		"method", r.Method,
		"route", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		h.writeError(w, http.StatusBadRequest, msgInvalidPath)
		return
	}

	note, err := h.svc.Load(r.Context(), path)
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	h.writeNote(w, note)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if req.Path == "" {
		h.writeError(w, http.StatusBadRequest, msgInvalidPath)
		return
	}

	note, err := h.svc.Save(r.Context(), req.Path, req.Content)
	if err != nil {
		h.fail(w, r, err, msgSaveFailed)
		return
	}
	h.writeNote(w, note)
}

// fail maps service errors to responses. Invalid input is the client's
// fault; anything else is a server error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, core.ErrInvalidInput) {
		h.writeError(w, http.StatusBadRequest, msgInvalidPath)
		return
	}
	h.logger.Error("request failed", "request_id", requestID(r.Context()), "error", err)
	h.writeError(w, http.StatusInternalServerError, msg)
}

func (h *Handler) writeNote(w http.ResponseWriter, note core.Note) {
	h.writeJSON(w, http.StatusOK, NoteResponse{
		Content:      note.Content,
		LastModified: note.LastModified.UTC().Format(core.TimestampLayout),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("write response", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
