package interaction

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/track/click", h.HandleClick)
	r.Post("/track/submit", h.HandleSubmit)
	r.Get("/health", h.HandleHealth)
	return r
}

func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.SourceAddress = realIP(r)

	eventID, err := h.service.RecordClick(r.Context(), req)
	if err != nil {
		if isValidationErr(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("record click failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record click")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"event_id": eventID})
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.SourceAddress = realIP(r)

	result, err := h.service.RecordSubmission(r.Context(), req)
	if err != nil {
		if isValidationErr(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("record submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record submission")
		return
	}

	// An orphan was stored but could not be correlated; 202 tells the
	// collector the data is safe while flagging it for manual review.
	status := http.StatusCreated
	if result.Orphaned {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func isValidationErr(err error) bool {
	return errors.Is(err, ErrInvalidCampaignID) ||
		errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidLandingPageID) ||
		errors.Is(err, ErrInvalidSourceAddress) ||
		errors.Is(err, ErrEmptyPayload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
