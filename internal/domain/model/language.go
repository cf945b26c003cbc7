package model

// Language is a programming language the execution engine can run. Wrapped languages
// get a harness that calls the solution function with each test input.
type Language struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	JudgeID int    `json:"judge_id"` // Judge0 language_id
	Wrapped bool   `json:"wrapped"`
}
