package model

import "time"

type SubmissionStatus string

// StatusUnverified is stored when at least one case could not be run because the engine was offline.
const (
	StatusAccepted    SubmissionStatus = "Accepted"
	StatusWrongAnswer SubmissionStatus = "WrongAnswer"
	StatusUnverified  SubmissionStatus = "Unverified"
)

type Submission struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	ProblemID     string           `json:"problem_id"`
	Code          string           `json:"code"`
	Language      string           `json:"language"`
	Status        SubmissionStatus `json:"status"`
	Passed        bool             `json:"passed"`
	TestResults   []TestCaseResult `json:"test_results"`
	PointsAwarded int              `json:"points_awarded"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	ProblemTitle  *string          `json:"problem_title,omitempty"`
}

// TestCaseResult is the outcome of one test case. Hidden cases carry no input or outputs
// when shown to students.
type TestCaseResult struct {
	TestCaseID     string  `json:"test_case_id"`
	Input          string  `json:"input,omitempty"`
	ExpectedOutput string  `json:"expected_output,omitempty"`
	ActualOutput   string  `json:"actual_output,omitempty"`
	Passed         bool    `json:"passed"`
	Status         string  `json:"status"`
	Message        string  `json:"message,omitempty"`
	Hidden         bool    `json:"hidden,omitempty"`
	Degraded       bool    `json:"degraded,omitempty"`
	MatchMethod    string  `json:"match_method,omitempty"`
	TimeSeconds    float64 `json:"time_seconds,omitempty"`
	MemoryKb       int     `json:"memory_kb,omitempty"`
}

// GradeResult is returned to the client after grading.
type GradeResult struct {
	SubmissionID  string           `json:"submission_id"`
	Status        SubmissionStatus `json:"status"`
	Passed        bool             `json:"passed"`
	Degraded      bool             `json:"degraded"`
	Results       []TestCaseResult `json:"results"`
	PointsAwarded int              `json:"points_awarded"`
	TotalPoints   int              `json:"total_points"`
	Message       string           `json:"message,omitempty"`
}

// RunResult is the outcome of running ad-hoc code without grading.
type RunResult struct {
	Status        string  `json:"status"`
	Stdout        string  `json:"stdout"`
	Stderr        string  `json:"stderr,omitempty"`
	CompileOutput string  `json:"compile_output,omitempty"`
	Message       string  `json:"message,omitempty"`
	TimeSeconds   float64 `json:"time_seconds,omitempty"`
	MemoryKb      int     `json:"memory_kb,omitempty"`
	Degraded      bool    `json:"degraded,omitempty"`
}
