// Package handler exposes the exam lifecycle as a JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hdnguyen/bandexam/internal/i18n"
	"github.com/hdnguyen/bandexam/internal/llm"
	"github.com/hdnguyen/bandexam/internal/model"
	"github.com/hdnguyen/bandexam/internal/session"
	"github.com/hdnguyen/bandexam/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	svc     *session.Service
	archive *store.Archive
}

// New creates a new Handler. archive may be nil; the archive routes then
// report 404.
func New(svc *session.Service, archive *store.Archive) *Handler {
	return &Handler{svc: svc, archive: archive}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.handleHealth)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Get("/status", h.handleStatus)
			r.Post("/select-phase", h.handleSelectPhase)
			r.Post("/generate-phase1", h.handleGeneratePhase1)
			r.Post("/start-phase1", h.handleStartPhase1)
			r.Post("/submit-phase1", h.handleSubmitPhase1)
			r.Post("/generate-phase2", h.handleGeneratePhase2)
			r.Post("/start-phase2", h.handleStartPhase2)
			r.Post("/submit-phase2", h.handleSubmitPhase2)
			r.Post("/aggregate", h.handleAggregate)
			r.Post("/generate-analysis", h.handleGenerateAnalysis)
		})
	})

	r.Route("/archive", func(r chi.Router) {
		r.Get("/export", h.handleExport)
		r.Get("/{sessionID}", h.handleArchivedSession)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRequest struct {
	Level model.Level `json:"level"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "error.invalid_request", err)
		return
	}
	sess, err := h.svc.Create(req.Level)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	projections := []model.StatusProjection{}
	for _, sess := range h.svc.List() {
		projections = append(projections, sess.Projection())
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": projections})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.Get(id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	proj, err := h.svc.Status(id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

type selectPhaseRequest struct {
	Phase model.Phase `json:"phase"`
}

func (h *Handler) handleSelectPhase(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req selectPhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "error.invalid_request", err)
		return
	}
	sess, err := h.svc.SelectPhase(id, req.Phase)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleGeneratePhase1(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64) (*model.Session, error) {
		return h.svc.GeneratePhase1(r.Context(), id)
	})
}

func (h *Handler) handleStartPhase1(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64) (*model.Session, error) {
		return h.svc.StartPhase1(id)
	})
}

func (h *Handler) handleSubmitPhase1(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.svc.SubmitPhase1)
}

func (h *Handler) handleGeneratePhase2(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64) (*model.Session, error) {
		return h.svc.GeneratePhase2(r.Context(), id)
	})
}

func (h *Handler) handleStartPhase2(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64) (*model.Session, error) {
		return h.svc.StartPhase2(id)
	})
}

func (h *Handler) handleSubmitPhase2(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.svc.SubmitPhase2)
}

func (h *Handler) handleAggregate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64) (*model.Session, error) {
		return h.svc.Aggregate(r.Context(), id)
	})
}

func (h *Handler) handleGenerateAnalysis(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64) (*model.Session, error) {
		return h.svc.GenerateAnalysis(r.Context(), id)
	})
}

func (h *Handler) handleArchivedSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if h.archive == nil {
		writeError(w, r, http.StatusNotFound, "error.session_not_found", nil)
		return
	}
	sess, err := h.archive.Get(id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeJSON(w, http.StatusOK, map[string]any{"results": []store.ArchivedResult{}})
		return
	}
	results, err := h.archive.ExportAll()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if results == nil {
		results = []store.ArchivedResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type submitRequest struct {
	Answers map[string]string `json:"answers"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64, answers map[string]string) (*model.Session, error)) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "error.invalid_request", err)
		return
	}
	sess, err := fn(r.Context(), id, req.Answers)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(id int64) (*model.Session, error)) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := fn(id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "error.invalid_request", err)
		return 0, false
	}
	return id, true
}

// writeServiceError maps service errors onto HTTP statuses: unknown ids to
// 404, validation and state violations to 400, collaborator failures to
// 502, everything else to 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "error.session_not_found", err)
	case errors.Is(err, session.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "error.invalid_request", err)
	case errors.Is(err, session.ErrInvalidState):
		writeError(w, r, http.StatusBadRequest, "error.precondition", err)
	case isCollaboratorError(err):
		writeError(w, r, http.StatusBadGateway, "error.generation_failed", err)
	default:
		writeError(w, r, http.StatusInternalServerError, "error.internal", err)
	}
}

func isCollaboratorError(err error) bool {
	var (
		unavailable *llm.ErrProviderUnavailable
		rateLimit   *llm.ErrRateLimit
		invalid     *llm.ErrInvalidResponse
		truncated   *llm.ErrMaxTokensExceeded
	)
	return errors.As(err, &unavailable) || errors.As(err, &rateLimit) ||
		errors.As(err, &invalid) || errors.As(err, &truncated)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string, err error) {
	if err != nil {
		slog.Warn("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	detail := ""
	if err != nil && status != http.StatusInternalServerError {
		detail = err.Error()
	}
	writeJSON(w, status, map[string]string{
		"error":  i18n.T(r.Context(), msgID),
		"detail": detail,
	})
}
