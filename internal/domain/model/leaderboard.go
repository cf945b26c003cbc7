package model

import "time"

type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	Points         int    `json:"points"`
	ProblemsSolved int    `json:"problems_solved"`
}

// StudentStats is the per-student summary shown to teachers.
type StudentStats struct {
	UserID           string     `json:"user_id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Points           int        `json:"points"`
	Attempts         int        `json:"attempts"`
	PassedAttempts   int        `json:"passed_attempts"`
	ProblemsSolved   int        `json:"problems_solved"`
	LastSubmissionAt *time.Time `json:"last_submission_at,omitempty"`
}
