package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"code_practice/internal/app/grading"
	"code_practice/internal/app/worker"
	"code_practice/internal/common"
	"code_practice/internal/domain/model"
	"code_practice/internal/domain/repository"
	"code_practice/internal/judge"
	"code_practice/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner sends programs to the execution engine. *worker.Dispatcher implements it.
type Runner interface {
	Submit(ctx context.Context, req judge.Request) (*judge.Result, error)
	Offline(ctx context.Context) bool
	Status(ctx context.Context) worker.Status
}

// Locker guards one grading run per user.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

const (
	caseStatusAccepted    = "Accepted"
	caseStatusWrongAnswer = "Wrong Answer"
	caseStatusError       = "Error"
)

type SubmissionService struct {
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	runner         Runner
	locker         Locker
}

func NewSubmissionService(
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionRepository,
	runner Runner,
	locker Locker,
) *SubmissionService {
	return &SubmissionService{
		problemRepo:    problemRepo,
		submissionRepo: submissionRepo,
		runner:         runner,
		locker:         locker,
	}
}

type GradeRequest struct {
	ProblemID string `json:"problem_id"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

// Grade runs code against every test case of the problem, stores the submission and
// awards points on the user's first accepted submission for it.
func (s *SubmissionService) Grade(ctx context.Context, userID string, req GradeRequest) (*model.GradeResult, error) {
	if strings.TrimSpace(req.Code) == "" || req.ProblemID == "" {
		return nil, common.Errorf("problem_id and code are required: %w", common.ErrBadRequest)
	}
	problem, err := s.problemRepo.FindByID(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}
	lang, err := judge.LookupLanguage(req.Language)
	if err != nil {
		return nil, err
	}
	if len(problem.TestCases) == 0 {
		return nil, common.Errorf("problem %s has no test cases: %w", problem.ID, common.ErrBadRequest)
	}

	release, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrLockFailed) {
			return nil, common.Errorf("another submission is already being graded: %w", err)
		}
		return nil, err
	}
	defer release()

	offline := s.runner.Offline(ctx)
	results := make([]model.TestCaseResult, 0, len(problem.TestCases))
	allPassed, degraded := true, false

	for _, tc := range problem.TestCases {
		res := model.TestCaseResult{
			TestCaseID:     tc.ID,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Hidden:         tc.Hidden,
		}

		prog, err := grading.Prepare(lang, req.Code, problem.FunctionName, tc.Input)
		if err != nil {
			res.Status = caseStatusError
			res.Message = "Error: " + err.Error()
			results = append(results, res)
			allPassed = false
			continue
		}

		var run *judge.Result
		if !offline {
			run, err = s.runner.Submit(ctx, judge.Request{SourceCode: prog.Source, LanguageID: lang.JudgeID, Stdin: prog.Stdin})
			if errors.Is(err, judge.ErrQuotaExhausted) {
				logger.Warn(ctx, "execution engine went offline during grading", zap.String("problem_id", problem.ID))
				offline = true
			} else if err != nil {
				return nil, fmt.Errorf("grading test case %d: %w", tc.SortOrder, err)
			}
		}
		if offline {
			run = grading.EvaluateDegraded(lang, req.Code, problem.FunctionName)
		}

		applyRun(&res, tc, run)
		if res.Degraded {
			degraded = true
		}
		if !res.Passed {
			allPassed = false
		}
		results = append(results, res)
	}

	sub := &model.Submission{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProblemID:   problem.ID,
		Code:        req.Code,
		Language:    lang.Slug,
		Passed:      allPassed,
		TestResults: results,
	}
	switch {
	case allPassed:
		sub.Status = model.StatusAccepted
	case degraded:
		sub.Status = model.StatusUnverified
	default:
		sub.Status = model.StatusWrongAnswer
	}

	points := problem.Points
	if points == 0 {
		points = model.PointsForDifficulty(problem.Difficulty)
	}
	award, err := s.submissionRepo.SaveGraded(ctx, sub, points)
	if err != nil {
		return nil, common.Errorf("failed to save submission: %w", err)
	}

	logger.Info(ctx, "submission graded",
		zap.String("submission_id", sub.ID),
		zap.String("problem_id", problem.ID),
		zap.String("status", string(sub.Status)),
		zap.Int("points_awarded", award.Points))

	out := &model.GradeResult{
		SubmissionID:  sub.ID,
		Status:        sub.Status,
		Passed:        sub.Passed,
		Degraded:      degraded,
		Results:       redactHidden(results),
		PointsAwarded: award.Points,
		TotalPoints:   award.TotalPoints,
	}
	switch {
	case degraded:
		out.Message = "The execution engine is offline until its daily quota resets. Your solution was saved but not verified."
	case allPassed && award.Points > 0:
		out.Message = fmt.Sprintf("All test cases passed. You earned %d points.", award.Points)
	case allPassed:
		out.Message = "All test cases passed. Points were already awarded for this problem."
	}
	return out, nil
}

func applyRun(res *model.TestCaseResult, tc model.TestCase, run *judge.Result) {
	res.TimeSeconds = run.Time
	res.MemoryKb = run.Memory
	res.Degraded = run.Degraded

	switch {
	case run.Status.Unverified():
		res.Status = run.Status.String()
		res.Message = run.Message
	case run.Status.Accepted():
		res.ActualOutput = run.Stdout
		ok, method := grading.CompareOutputs(tc.ExpectedOutput, run.Stdout)
		res.Passed = ok
		res.MatchMethod = string(method)
		if ok {
			res.Status = caseStatusAccepted
		} else {
			res.Status = caseStatusWrongAnswer
		}
	default:
		res.ActualOutput = run.Stdout
		res.Status = run.Status.String()
		res.Message = run.ErrorOutput()
	}
}

// redactHidden strips inputs and outputs of hidden cases.
func redactHidden(results []model.TestCaseResult) []model.TestCaseResult {
	out := make([]model.TestCaseResult, len(results))
	for i, r := range results {
		if r.Hidden {
			r.Input = ""
			r.ExpectedOutput = ""
			r.ActualOutput = ""
			if r.Status != caseStatusError {
				r.Message = ""
			}
		}
		out[i] = r
	}
	return out
}

type ExecuteRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Stdin    string `json:"stdin"`
}

// Execute runs code once with the given stdin. Nothing is stored.
func (s *SubmissionService) Execute(ctx context.Context, req ExecuteRequest) (*model.RunResult, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, common.Errorf("code is required: %w", common.ErrBadRequest)
	}
	lang, err := judge.LookupLanguage(req.Language)
	if err != nil {
		return nil, err
	}
	if s.runner.Offline(ctx) {
		return nil, judge.ErrQuotaExhausted
	}

	run, err := s.runner.Submit(ctx, judge.Request{SourceCode: req.Code, LanguageID: lang.JudgeID, Stdin: req.Stdin})
	if err != nil {
		return nil, err
	}
	return &model.RunResult{
		Status:        run.Status.String(),
		Stdout:        run.Stdout,
		Stderr:        run.Stderr,
		CompileOutput: run.CompileOutput,
		Message:       run.Message,
		TimeSeconds:   run.Time,
		MemoryKb:      run.Memory,
	}, nil
}

type SubmissionListResponse struct {
	Submissions []model.Submission `json:"submissions"`
	Total       int                `json:"total"`
	Limit       int                `json:"limit"`
	Offset      int                `json:"offset"`
}

// ListUserSubmissions returns userID's history. Only the owner and teachers may read it.
func (s *SubmissionService) ListUserSubmissions(ctx context.Context, viewer Viewer, userID string, limit, offset int) (*SubmissionListResponse, error) {
	if viewer.UserID != userID && !viewer.IsTeacher() {
		return nil, common.ErrForbidden
	}
	limit, offset = clampPage(limit, offset)

	subs, total, err := s.submissionRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if !viewer.IsTeacher() {
		for i := range subs {
			subs[i].TestResults = redactHidden(subs[i].TestResults)
		}
	}
	return &SubmissionListResponse{Submissions: subs, Total: total, Limit: limit, Offset: offset}, nil
}

// EngineStatus reports queue, cooldown and quota state of the execution engine.
func (s *SubmissionService) EngineStatus(ctx context.Context) worker.Status {
	return s.runner.Status(ctx)
}
