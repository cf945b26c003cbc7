package service

import (
	"context"
	"strings"

	"code_practice/internal/common"
	"code_practice/internal/domain/model"
	"code_practice/internal/domain/repository"
	"code_practice/internal/judge"
	"code_practice/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// SolvedLookup reports which problems a user has solved.
type SolvedLookup interface {
	SolvedProblemIDs(ctx context.Context, userID string) (map[string]bool, error)
}

type ProblemService struct {
	problemRepo repository.ProblemRepository
	solved      SolvedLookup
}

func NewProblemService(problemRepo repository.ProblemRepository, solved SolvedLookup) *ProblemService {
	return &ProblemService{problemRepo: problemRepo, solved: solved}
}

type TestCaseInput struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Hidden         bool   `json:"hidden"`
}

type CreateProblemRequest struct {
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	Difficulty   model.ProblemDifficulty `json:"difficulty"`
	FunctionName string                  `json:"function_name"`
	StartingCode map[string]string       `json:"starting_code"` // language -> template
	TestCases    []TestCaseInput         `json:"test_cases"`
}

// UpdateProblemRequest only changes the fields that are set.
type UpdateProblemRequest struct {
	Title        *string                  `json:"title,omitempty"`
	Description  *string                  `json:"description,omitempty"`
	Difficulty   *model.ProblemDifficulty `json:"difficulty,omitempty"`
	FunctionName *string                  `json:"function_name,omitempty"`
	StartingCode *map[string]string       `json:"starting_code,omitempty"`
	TestCases    *[]TestCaseInput         `json:"test_cases,omitempty"`
}

type ProblemListResponse struct {
	Problems []model.Problem `json:"problems"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

func (s *ProblemService) ListProblems(ctx context.Context, viewer Viewer, filter model.ProblemFilter) (*ProblemListResponse, error) {
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		return nil, common.Errorf("unknown difficulty %q: %w", filter.Difficulty, common.ErrBadRequest)
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	problems, total, err := s.problemRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	solved, err := s.solvedBy(ctx, viewer)
	if err != nil {
		return nil, err
	}
	for i := range problems {
		problems[i].Solved = solved[problems[i].ID]
	}
	return &ProblemListResponse{Problems: problems, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// GetProblem looks the problem up by id, or by slug when idOrSlug is not a UUID.
func (s *ProblemService) GetProblem(ctx context.Context, viewer Viewer, idOrSlug string) (*model.Problem, error) {
	var (
		problem *model.Problem
		err     error
	)
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		problem, err = s.problemRepo.FindByID(ctx, idOrSlug)
	} else {
		problem, err = s.problemRepo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}

	if !viewer.IsTeacher() {
		problem.TestCases = problem.VisibleTestCases()
	}
	solved, err := s.solvedBy(ctx, viewer)
	if err != nil {
		return nil, err
	}
	problem.Solved = solved[problem.ID]
	return problem, nil
}

func (s *ProblemService) solvedBy(ctx context.Context, viewer Viewer) (map[string]bool, error) {
	if viewer.UserID == "" || s.solved == nil {
		return map[string]bool{}, nil
	}
	return s.solved.SolvedProblemIDs(ctx, viewer.UserID)
}

func (s *ProblemService) CreateProblem(ctx context.Context, viewer Viewer, req CreateProblemRequest) (*model.Problem, error) {
	if !viewer.IsTeacher() {
		return nil, common.Errorf("only teachers can create problems: %w", common.ErrForbidden)
	}
	startingCode, err := normalizeStartingCode(req.StartingCode)
	if err != nil {
		return nil, err
	}

	problem := &model.Problem{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Difficulty:   req.Difficulty,
		FunctionName: strings.TrimSpace(req.FunctionName),
		StartingCode: startingCode,
		CreatedByID:  &viewer.UserID,
		TestCases:    toTestCases(req.TestCases),
	}
	if err := validateProblem(problem); err != nil {
		return nil, err
	}
	problem.Slug = slug.Make(problem.Title)
	problem.Points = model.PointsForDifficulty(problem.Difficulty)

	if err := s.problemRepo.Create(ctx, problem); err != nil {
		return nil, common.Errorf("failed to create problem: %w", err)
	}
	logger.Info(ctx, "problem created", zap.String("problem_id", problem.ID), zap.String("slug", problem.Slug))
	return problem, nil
}

func (s *ProblemService) UpdateProblem(ctx context.Context, viewer Viewer, id string, req UpdateProblemRequest) (*model.Problem, error) {
	problem, err := s.problemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isCreator(problem, viewer) {
		return nil, common.Errorf("only the creator can edit this problem: %w", common.ErrForbidden)
	}

	if req.Title != nil {
		problem.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		problem.Description = *req.Description
	}
	if req.Difficulty != nil {
		problem.Difficulty = *req.Difficulty
	}
	if req.FunctionName != nil {
		problem.FunctionName = strings.TrimSpace(*req.FunctionName)
	}
	if req.StartingCode != nil {
		if problem.StartingCode, err = normalizeStartingCode(*req.StartingCode); err != nil {
			return nil, err
		}
	}
	if req.TestCases != nil {
		problem.TestCases = toTestCases(*req.TestCases)
	}
	if err := validateProblem(problem); err != nil {
		return nil, err
	}
	problem.Slug = slug.Make(problem.Title)
	problem.Points = model.PointsForDifficulty(problem.Difficulty)

	if err := s.problemRepo.Update(ctx, problem); err != nil {
		return nil, common.Errorf("failed to update problem: %w", err)
	}
	return problem, nil
}

func (s *ProblemService) DeleteProblem(ctx context.Context, viewer Viewer, id string) error {
	problem, err := s.problemRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !isCreator(problem, viewer) {
		return common.Errorf("only the creator can delete this problem: %w", common.ErrForbidden)
	}
	if err := s.problemRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info(ctx, "problem deleted", zap.String("problem_id", id))
	return nil
}

func isCreator(p *model.Problem, viewer Viewer) bool {
	return viewer.UserID != "" && p.CreatedByID != nil && *p.CreatedByID == viewer.UserID
}

func validateProblem(p *model.Problem) error {
	if err := common.Validate(p); err != nil {
		return err
	}
	if slug.Make(p.Title) == "" {
		return common.Errorf("title must contain letters or digits: %w", common.ErrValidation)
	}
	return nil
}

func toTestCases(in []TestCaseInput) []model.TestCase {
	cases := make([]model.TestCase, len(in))
	for i, tc := range in {
		cases[i] = model.TestCase{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Hidden:         tc.Hidden,
			SortOrder:      i + 1,
		}
	}
	return cases
}

// normalizeStartingCode rekeys templates by canonical language slug.
func normalizeStartingCode(in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for name, code := range in {
		lang, err := judge.LookupLanguage(name)
		if err != nil {
			return nil, err
		}
		out[lang.Slug] = code
	}
	return out, nil
}
