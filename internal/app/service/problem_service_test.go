package service

import (
	"context"
	"testing"

	"code_practice/internal/common"
	"code_practice/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	teacherViewer = Viewer{UserID: "teacher-1", Role: model.RoleTeacher}
	studentViewer = Viewer{UserID: "student-1", Role: model.RoleStudent}
)

func validCreateRequest() CreateProblemRequest {
	return CreateProblemRequest{
		Title:        "Reverse String",
		Description:  "Reverse the input string.",
		Difficulty:   model.DifficultyMedium,
		FunctionName: "reverse",
		StartingCode: map[string]string{"js": "function reverse(s) {}", "py": "def reverse(s):\n    pass"},
		TestCases: []TestCaseInput{
			{Input: `s = "abc"`, ExpectedOutput: `"cba"`},
			{Input: `s = ""`, ExpectedOutput: `""`, Hidden: true},
		},
	}
}

func TestCreateProblem(t *testing.T) {
	repo := newFakeProblemRepo()
	svc := NewProblemService(repo, newFakeSubmissionRepo())

	p, err := svc.CreateProblem(context.Background(), teacherViewer, validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "reverse-string", p.Slug)
	assert.Equal(t, 20, p.Points)
	assert.Equal(t, "teacher-1", *p.CreatedByID)
	assert.Equal(t, map[string]string{"javascript": "function reverse(s) {}", "python": "def reverse(s):\n    pass"}, p.StartingCode)
	require.Len(t, p.TestCases, 2)
	assert.Equal(t, 2, p.TestCases[1].SortOrder)

	_, err = svc.CreateProblem(context.Background(), teacherViewer, validCreateRequest())
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestCreateProblemRequiresTeacher(t *testing.T) {
	svc := NewProblemService(newFakeProblemRepo(), nil)
	_, err := svc.CreateProblem(context.Background(), studentViewer, validCreateRequest())
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestCreateProblemValidation(t *testing.T) {
	svc := NewProblemService(newFakeProblemRepo(), nil)
	tests := []struct {
		name   string
		mutate func(*CreateProblemRequest)
	}{
		{"missing title", func(r *CreateProblemRequest) { r.Title = " " }},
		{"missing description", func(r *CreateProblemRequest) { r.Description = "" }},
		{"bad difficulty", func(r *CreateProblemRequest) { r.Difficulty = "insane" }},
		{"no test cases", func(r *CreateProblemRequest) { r.TestCases = nil }},
		{"empty expected output", func(r *CreateProblemRequest) { r.TestCases[0].ExpectedOutput = "" }},
		{"blank expected output", func(r *CreateProblemRequest) { r.TestCases[1].ExpectedOutput = " \n" }},
		{"title without slug characters", func(r *CreateProblemRequest) { r.Title = "???" }},
		{"unknown starting code language", func(r *CreateProblemRequest) { r.StartingCode = map[string]string{"cobol": ""} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			_, err := svc.CreateProblem(context.Background(), teacherViewer, req)
			require.Error(t, err)
			assert.Equal(t, 400, common.HTTPStatusFromError(err))
		})
	}
}

func TestCreateProblemValidationNamesFields(t *testing.T) {
	svc := NewProblemService(newFakeProblemRepo(), nil)
	req := validCreateRequest()
	req.Difficulty = "insane"
	req.TestCases[1].ExpectedOutput = ""

	_, err := svc.CreateProblem(context.Background(), teacherViewer, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "difficulty must be one of: easy, medium, hard")
	assert.Contains(t, err.Error(), "test_cases[1].expected_output is required")
}

func TestGetProblemHidesHiddenCasesFromStudents(t *testing.T) {
	subs := newFakeSubmissionRepo()
	subs.solved["student-1"] = map[string]bool{twoSumID: true}
	svc := NewProblemService(newFakeProblemRepo(twoSumProblem()), subs)
	ctx := context.Background()

	p, err := svc.GetProblem(ctx, studentViewer, "two-sum")
	require.NoError(t, err)
	assert.Len(t, p.TestCases, 1)
	assert.True(t, p.Solved)

	p, err = svc.GetProblem(ctx, teacherViewer, twoSumID)
	require.NoError(t, err)
	assert.Len(t, p.TestCases, 2)
	assert.False(t, p.Solved)

	p, err = svc.GetProblem(ctx, Viewer{}, twoSumID)
	require.NoError(t, err)
	assert.Len(t, p.TestCases, 1)

	_, err = svc.GetProblem(ctx, studentViewer, "no-such-problem")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListProblems(t *testing.T) {
	subs := newFakeSubmissionRepo()
	subs.solved["student-1"] = map[string]bool{twoSumID: true}
	svc := NewProblemService(newFakeProblemRepo(twoSumProblem()), subs)
	ctx := context.Background()

	list, err := svc.ListProblems(ctx, studentViewer, model.ProblemFilter{Difficulty: model.DifficultyEasy})
	require.NoError(t, err)
	require.Len(t, list.Problems, 1)
	assert.True(t, list.Problems[0].Solved)
	assert.Equal(t, defaultPageSize, list.Limit)

	list, err = svc.ListProblems(ctx, studentViewer, model.ProblemFilter{Difficulty: model.DifficultyHard})
	require.NoError(t, err)
	assert.Empty(t, list.Problems)

	_, err = svc.ListProblems(ctx, studentViewer, model.ProblemFilter{Difficulty: "impossible"})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestUpdateProblemCreatorOnly(t *testing.T) {
	repo := newFakeProblemRepo(twoSumProblem())
	svc := NewProblemService(repo, nil)
	ctx := context.Background()

	title := "Two Sum II"
	hard := model.DifficultyHard
	_, err := svc.UpdateProblem(ctx, Viewer{UserID: "teacher-2", Role: model.RoleTeacher}, twoSumID, UpdateProblemRequest{Title: &title})
	assert.ErrorIs(t, err, common.ErrForbidden)

	p, err := svc.UpdateProblem(ctx, teacherViewer, twoSumID, UpdateProblemRequest{Title: &title, Difficulty: &hard})
	require.NoError(t, err)
	assert.Equal(t, "two-sum-ii", p.Slug)
	assert.Equal(t, 30, p.Points)
	assert.Len(t, p.TestCases, 2, "test cases are kept when not supplied")

	empty := []TestCaseInput{}
	_, err = svc.UpdateProblem(ctx, teacherViewer, twoSumID, UpdateProblemRequest{TestCases: &empty})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeleteProblemCreatorOnly(t *testing.T) {
	repo := newFakeProblemRepo(twoSumProblem())
	svc := NewProblemService(repo, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteProblem(ctx, studentViewer, twoSumID), common.ErrForbidden)
	require.NoError(t, svc.DeleteProblem(ctx, teacherViewer, twoSumID))
	assert.ErrorIs(t, svc.DeleteProblem(ctx, teacherViewer, twoSumID), common.ErrNotFound)
}
