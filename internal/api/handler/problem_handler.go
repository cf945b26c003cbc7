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

type ProblemService interface {
	ListProblems(ctx context.Context, viewer service.Viewer, filter model.ProblemFilter) (*service.ProblemListResponse, error)
	GetProblem(ctx context.Context, viewer service.Viewer, idOrSlug string) (*model.Problem, error)
	CreateProblem(ctx context.Context, viewer service.Viewer, req service.CreateProblemRequest) (*model.Problem, error)
	UpdateProblem(ctx context.Context, viewer service.Viewer, id string, req service.UpdateProblemRequest) (*model.Problem, error)
	DeleteProblem(ctx context.Context, viewer service.Viewer, id string) error
}

type ProblemHandler struct {
	problemService ProblemService
}

func NewProblemHandler(ps ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(public chi.Router) {
		public.Use(middleware.Identify)
		public.Get("/", h.listProblems)
		public.Get("/{problemID}", h.getProblem) // id or slug
	})

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.With(middleware.TeacherOnly).Post("/", h.createProblem)
		authed.Put("/{problemID}", h.updateProblem)
		authed.Delete("/{problemID}", h.deleteProblem)
	})
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ProblemFilter{
		Difficulty: model.ProblemDifficulty(q.Get("difficulty")),
		Search:     q.Get("search"),
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	}
	resp, err := h.problemService.ListProblems(r.Context(), viewerFrom(r), filter)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problemService.GetProblem(r.Context(), viewerFrom(r), chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	problem, err := h.problemService.CreateProblem(r.Context(), viewerFrom(r), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	problem, err := h.problemService.UpdateProblem(r.Context(), viewerFrom(r), chi.URLParam(r, "problemID"), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := h.problemService.DeleteProblem(r.Context(), viewerFrom(r), chi.URLParam(r, "problemID")); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
