package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pulseai/apiserver/internal/services"
	"github.com/pulseai/apiserver/internal/store"
)

// Fixed error lines mirrored to the client. Generation failures always
// degrade to user-safe text, never raw upstream errors.
const (
	msgInsightsUserMissing = "• Error: User account not found."
	msgInsightsError       = "• Oops! An error occurred while generating insights. Please try again later."
)

// InsightHandler provides the AI insights endpoint.
type InsightHandler struct {
	insightService *services.InsightService
}

// NewInsightHandler constructs a handler with the provided service.
func NewInsightHandler(insightService *services.InsightService) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

// InsightRouter registers AI routes on the given router.
func InsightRouter(r chi.Router, insightService *services.InsightService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewInsightHandler(insightService)

	r.Use(authMiddleware)
	r.Post("/insights", handler.GenerateInsights)
}

// InsightsResponse carries the bullet-separated insight text.
type InsightsResponse struct {
	Insights string `json:"insights"`
}

// GenerateInsights returns today's insights for the caller, generating
// them at most once per calendar day.
func (h *InsightHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	insights, err := h.insightService.Generate(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, InsightsResponse{Insights: msgInsightsUserMissing})
			return
		}
		writeJSON(w, http.StatusInternalServerError, InsightsResponse{Insights: msgInsightsError})
		return
	}

	writeJSON(w, http.StatusOK, InsightsResponse{Insights: insights})
}
