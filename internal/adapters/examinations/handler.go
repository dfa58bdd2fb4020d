package examinations

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"vetclinic/internal/core"
	"vetclinic/pkg/examination"
)

const basePath = "/api/v1/examinations"

// Service is the subset of core.Service used by the handler.
type Service interface {
	Create(ctx context.Context, payload examination.Payload) (core.Examination, core.Result, error)
	Update(ctx context.Context, id string, payload examination.Payload) (core.Examination, core.Result, error)
	Get(ctx context.Context, id string) (core.Examination, error)
	List(ctx context.Context) ([]core.Examination, error)
	History(ctx context.Context, id string) ([]core.HistoryEntry, error)
}

// Handler provides HTTP access to stored examinations.
type Handler struct {
	Service Service
	Logger  *zap.Logger
}

// NewHandler constructs an examination HTTP handler.
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Logger: logger.Named("http")}
}

type examinationResponse struct {
	Examination core.Examination `json:"examination"`
	Warnings    []core.Violation `json:"warnings,omitempty"`
}

type violationResponse struct {
	Error      string           `json:"error"`
	Violations []core.Violation `json:"violations"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "examination service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == basePath {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	remainder, ok := strings.CutPrefix(path, basePath+"/")
	if !ok || remainder == "" {
		http.NotFound(w, r)
		return
	}
	segments := strings.Split(remainder, "/")
	id := segments[0]
	switch {
	case len(segments) == 1:
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPut:
			h.handleUpdate(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case len(segments) == 2 && segments[1] == "history":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleHistory(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "examination endpoint not found")
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	exams, err := h.Service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, core.Result{})
		return
	}
	if exams == nil {
		exams = []core.Examination{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"examinations": exams})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	exam, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, core.Result{})
		return
	}
	writeJSON(w, http.StatusOK, examinationResponse{Examination: exam})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	exam, res, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, r, err, res)
		return
	}
	writeJSON(w, http.StatusCreated, examinationResponse{Examination: exam, Warnings: res.Violations})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	exam, res, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		h.writeServiceError(w, r, err, res)
		return
	}
	writeJSON(w, http.StatusOK, examinationResponse{Examination: exam, Warnings: res.Violations})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request, id string) {
	entries, err := h.Service.History(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, core.Result{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

// decodePayload reads a bare submission payload object from the body.
func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request) (examination.Payload, bool) {
	var payload examination.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is empty")
			return nil, false
		}
		h.Logger.Debug("invalid payload", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid examination payload")
		return nil, false
	}
	if payload == nil {
		writeError(w, http.StatusBadRequest, "examination payload must be an object")
		return nil, false
	}
	return payload, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, res core.Result) {
	var notFound core.ErrNotFound
	var blocked core.RuleViolationError
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &blocked):
		violations := blocked.Result.Violations
		if len(violations) == 0 {
			violations = res.Violations
		}
		writeJSON(w, http.StatusUnprocessableEntity, violationResponse{
			Error:      "examination rejected by rules",
			Violations: violations,
		})
	default:
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
