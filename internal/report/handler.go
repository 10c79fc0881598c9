package report

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lureline/phishmetrics/internal/classify"
	"github.com/lureline/phishmetrics/internal/upstream"
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
	r.Get("/campaigns/{campaignID}/snapshot", h.HandleSnapshot)
	r.Get("/campaigns/{campaignID}/events", h.HandleCampaignEvents)
	r.Get("/campaigns/{campaignID}/trend", h.HandleCampaignTrend)
	r.Get("/programs/{campaignID}/status", h.HandleProgramStatus)
	r.Get("/learners/{userID}", h.HandleLearnerRecord)
	r.Post("/assessments", h.HandleAssessment)
	r.Get("/orphans", h.HandleOrphans)
	r.Get("/health", h.HandleHealth)
	return r
}

func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	snapshot, err := h.service.CampaignSnapshot(r.Context(), campaignID)
	if err != nil {
		if errors.Is(err, upstream.ErrCampaignNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		h.logger.Error("snapshot failed", zap.Error(err), zap.String("campaign_id", campaignID))
		writeError(w, http.StatusInternalServerError, "failed to compute snapshot")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) HandleCampaignEvents(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	events, err := h.service.CampaignEvents(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("event listing failed", zap.Error(err), zap.String("campaign_id", campaignID))
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id": campaignID,
		"events":      events,
		"total":       len(events),
	})
}

func (h *Handler) HandleCampaignTrend(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	to := time.Now().UTC()
	from := to.Add(-7 * 24 * time.Hour)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		to = parsed
	}

	summaries, err := h.service.CampaignTrend(r.Context(), campaignID, from, to)
	if err != nil {
		h.logger.Error("trend lookup failed", zap.Error(err), zap.String("campaign_id", campaignID))
		writeError(w, http.StatusInternalServerError, "failed to load trend")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id": campaignID,
		"summaries":   summaries,
	})
}

func (h *Handler) HandleProgramStatus(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	result, err := h.service.ProgramStatus(r.Context(), campaignID)
	if err != nil {
		if errors.Is(err, upstream.ErrCampaignNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		if errors.Is(err, upstream.ErrUpstreamUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "campaign service unavailable")
			return
		}
		h.logger.Error("program status failed", zap.Error(err), zap.String("campaign_id", campaignID))
		writeError(w, http.StatusInternalServerError, "failed to derive program status")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleLearnerRecord(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	// With an explicit status the mapping is pure and needs no upstream
	// call; that is the contract dashboards with pre-fetched rosters use.
	if raw, ok := r.URL.Query()["status"]; ok {
		score := 0
		if v := r.URL.Query().Get("score"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid score")
				return
			}
			score = parsed
		}
		email := r.URL.Query().Get("email")
		writeJSON(w, http.StatusOK, classify.NewLearnerRecord(userID, email, raw[0], score))
		return
	}

	record, err := h.service.LearnerRecord(r.Context(), userID)
	if err != nil {
		h.logger.Error("learner record failed", zap.Error(err), zap.String("user_id", userID))
		writeError(w, http.StatusInternalServerError, "failed to build learner record")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) HandleAssessment(w http.ResponseWriter, r *http.Request) {
	var session classify.AssessmentSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	result, err := h.service.ScoreAssessment(session)
	if err != nil {
		// All scoring failures are validation failures; nothing was stored.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleOrphans(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	events, err := h.service.OrphanEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("orphan listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list orphans")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"total":  len(events),
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
