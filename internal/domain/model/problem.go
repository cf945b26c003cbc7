package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "easy"
	DifficultyMedium ProblemDifficulty = "medium"
	DifficultyHard   ProblemDifficulty = "hard"
)

func (d ProblemDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// PointsForDifficulty is the award for the first accepted submission of a problem.
func PointsForDifficulty(d ProblemDifficulty) int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 30
	}
	return 0
}

type Problem struct {
	ID                string            `json:"id"`
	Title             string            `json:"title" validate:"notblank"`
	Slug              string            `json:"slug"`
	Description       string            `json:"description" validate:"notblank"`
	Difficulty        ProblemDifficulty `json:"difficulty" validate:"oneof=easy medium hard"`
	Points            int               `json:"points"`
	FunctionName      string            `json:"function_name,omitempty"`
	StartingCode      map[string]string `json:"starting_code,omitempty"` // language slug -> template
	CreatedByID       *string           `json:"created_by_id,omitempty"`
	CreatedByUsername *string           `json:"created_by_username,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	TestCases         []TestCase        `json:"test_cases,omitempty" validate:"min=1,dive"`
	Solved            bool              `json:"solved"` // for the requesting user
}

type TestCase struct {
	ID             string `json:"id"`
	ProblemID      string `json:"problem_id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output" validate:"notblank"`
	Hidden         bool   `json:"hidden"`
	SortOrder      int    `json:"sort_order"`
}

// VisibleTestCases drops hidden cases.
func (p *Problem) VisibleTestCases() []TestCase {
	visible := make([]TestCase, 0, len(p.TestCases))
	for _, tc := range p.TestCases {
		if !tc.Hidden {
			visible = append(visible, tc)
		}
	}
	return visible
}

type ProblemFilter struct {
	Difficulty ProblemDifficulty
	Search     string
	Limit      int
	Offset     int
}
