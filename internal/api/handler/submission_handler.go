package handler

import (
	"context"
	"net/http"

	"code_practice/internal/api/middleware"
	"code_practice/internal/app/service"
	"code_practice/internal/app/worker"
	"code_practice/internal/common"
	"code_practice/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type SubmissionService interface {
	Grade(ctx context.Context, userID string, req service.GradeRequest) (*model.GradeResult, error)
	Execute(ctx context.Context, req service.ExecuteRequest) (*model.RunResult, error)
	ListUserSubmissions(ctx context.Context, viewer service.Viewer, userID string, limit, offset int) (*service.SubmissionListResponse, error)
	EngineStatus(ctx context.Context) worker.Status
}

type SubmissionHandler struct {
	submissionService SubmissionService
	limiter           middleware.Limiter
}

// NewSubmissionHandler builds the handler. A nil limiter disables per-user throttling.
func NewSubmissionHandler(ss SubmissionService, limiter middleware.Limiter) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss, limiter: limiter}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.engineStatus)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Get("/user/{userID}", h.listUserSubmissions)

		authed.Group(func(limited chi.Router) {
			if h.limiter != nil {
				limited.Use(middleware.RateLimit(h.limiter))
			}
			limited.Post("/", h.grade)
			limited.Post("/execute", h.execute)
			limited.Post("/{problemID}", h.grade)
		})
	})
}

func (h *SubmissionHandler) grade(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var req service.GradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if id := chi.URLParam(r, "problemID"); id != "" {
		req.ProblemID = id
	}
	result, err := h.submissionService.Grade(r.Context(), userID, req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *SubmissionHandler) execute(w http.ResponseWriter, r *http.Request) {
	var req service.ExecuteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.submissionService.Execute(r.Context(), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *SubmissionHandler) listUserSubmissions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.submissionService.ListUserSubmissions(r.Context(), viewerFrom(r),
		chi.URLParam(r, "userID"), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *SubmissionHandler) engineStatus(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.submissionService.EngineStatus(r.Context()))
}
