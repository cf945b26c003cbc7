package handler

import (
	"context"
	"net/http"

	"code_practice/internal/api/middleware"
	"code_practice/internal/app/service"
	"code_practice/internal/common"
	"code_practice/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AnalyticsService interface {
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	StudentStats(ctx context.Context, viewer service.Viewer) ([]model.StudentStats, error)
}

type AnalyticsHandler struct {
	analyticsService AnalyticsService
}

func NewAnalyticsHandler(as AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: as}
}

// RegisterRoutes mounts /leaderboard and /analytics/students on r.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/leaderboard", h.leaderboard)
	r.With(middleware.Authenticator, middleware.TeacherOnly).Get("/analytics/students", h.studentStats)
}

func (h *AnalyticsHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.analyticsService.Leaderboard(r.Context(), queryInt(r, "limit"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *AnalyticsHandler) studentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analyticsService.StudentStats(r.Context(), viewerFrom(r))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}
