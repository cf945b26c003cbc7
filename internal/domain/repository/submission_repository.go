package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"code_practice/internal/domain/model"
)

// Award is the outcome of persisting a graded submission.
type Award struct {
	Points      int // points added by this submission; 0 on repeat passes
	TotalPoints int // user's total after the submission
}

type SubmissionRepository interface {
	// SaveGraded stores sub and, when it passed for the first time, adds points to the user.
	SaveGraded(ctx context.Context, sub *model.Submission, points int) (Award, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Submission, int, error)
	SolvedProblemIDs(ctx context.Context, userID string) (map[string]bool, error)
	GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	StudentStats(ctx context.Context) ([]model.StudentStats, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) SaveGraded(ctx context.Context, sub *model.Submission, points int) (Award, error) {
	results, err := json.Marshal(sub.TestResults)
	if err != nil {
		return Award{}, fmt.Errorf("encode test results: %w", err)
	}

	var award Award
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `INSERT INTO submissions (id, user_id, problem_id, code, language, status, passed, test_results)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		          RETURNING submitted_at`
		if err := tx.QueryRowContext(ctx, query, sub.ID, sub.UserID, sub.ProblemID, sub.Code, sub.Language,
			sub.Status, sub.Passed, string(results)).Scan(&sub.SubmittedAt); err != nil {
			return fmt.Errorf("pgSubmissionRepository.SaveGraded insert: %w", err)
		}

		if sub.Passed {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO user_solved_problems (user_id, problem_id, submission_id) VALUES ($1, $2, $3)
				 ON CONFLICT (user_id, problem_id) DO NOTHING`, sub.UserID, sub.ProblemID, sub.ID)
			if err != nil {
				return fmt.Errorf("pgSubmissionRepository.SaveGraded mark solved: %w", err)
			}
			firstSolve, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("pgSubmissionRepository.SaveGraded rows affected: %w", err)
			}
			if firstSolve == 1 && points > 0 {
				award.Points = points
				if _, err := tx.ExecContext(ctx,
					`UPDATE submissions SET points_awarded = $1 WHERE id = $2`, points, sub.ID); err != nil {
					return fmt.Errorf("pgSubmissionRepository.SaveGraded set award: %w", err)
				}
			}
		}

		err := tx.QueryRowContext(ctx,
			`UPDATE users SET points = points + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 RETURNING points`,
			award.Points, sub.UserID).Scan(&award.TotalPoints)
		if err != nil {
			return notFoundOr(err, "pgSubmissionRepository.SaveGraded update points")
		}
		return nil
	})
	if err != nil {
		return Award{}, err
	}
	sub.PointsAwarded = award.Points
	return award, nil
}

func (r *pgSubmissionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Submission, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, notFoundOr(err, "pgSubmissionRepository.ListByUser count")
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT s.id, s.user_id, s.problem_id, s.code, s.language, s.status, s.passed,
               s.test_results, s.points_awarded, s.submitted_at, p.title
        FROM submissions s
        JOIN problems p ON p.id = s.problem_id
        WHERE s.user_id = $1
        ORDER BY s.submitted_at DESC
        LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.ListByUser query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		var results []byte
		var title string
		if err := rows.Scan(&s.ID, &s.UserID, &s.ProblemID, &s.Code, &s.Language, &s.Status, &s.Passed,
			&results, &s.PointsAwarded, &s.SubmittedAt, &title); err != nil {
			return nil, 0, fmt.Errorf("pgSubmissionRepository.ListByUser scan: %w", err)
		}
		if err := json.Unmarshal(results, &s.TestResults); err != nil {
			return nil, 0, fmt.Errorf("decode test results for %s: %w", s.ID, err)
		}
		s.ProblemTitle = &title
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.ListByUser rows.Err: %w", err)
	}
	return subs, total, nil
}

func (r *pgSubmissionRepository) SolvedProblemIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT problem_id FROM user_solved_problems WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.SolvedProblemIDs query: %w", err)
	}
	defer rows.Close()

	solved := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.SolvedProblemIDs scan: %w", err)
		}
		solved[id] = true
	}
	return solved, rows.Err()
}

func (r *pgSubmissionRepository) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT u.id, u.username, u.points, COUNT(usp.problem_id) AS solved
        FROM users u
        LEFT JOIN user_solved_problems usp ON usp.user_id = u.id
        WHERE u.role = 'student'
        GROUP BY u.id, u.username, u.points
        ORDER BY u.points DESC, solved DESC, u.username ASC
        LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetLeaderboard query: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.ProblemsSolved); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetLeaderboard scan: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetLeaderboard rows.Err: %w", err)
	}
	return entries, nil
}

func (r *pgSubmissionRepository) StudentStats(ctx context.Context) ([]model.StudentStats, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT u.id, u.username, u.email, u.points,
               COUNT(s.id) AS attempts,
               COUNT(s.id) FILTER (WHERE s.passed) AS passed_attempts,
               (SELECT COUNT(*) FROM user_solved_problems usp WHERE usp.user_id = u.id) AS solved,
               MAX(s.submitted_at) AS last_submission
        FROM users u
        LEFT JOIN submissions s ON s.user_id = u.id
        WHERE u.role = 'student'
        GROUP BY u.id, u.username, u.email, u.points
        ORDER BY u.username ASC`)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.StudentStats query: %w", err)
	}
	defer rows.Close()

	stats := []model.StudentStats{}
	for rows.Next() {
		var st model.StudentStats
		var last sql.NullTime
		if err := rows.Scan(&st.UserID, &st.Username, &st.Email, &st.Points,
			&st.Attempts, &st.PassedAttempts, &st.ProblemsSolved, &last); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.StudentStats scan: %w", err)
		}
		if last.Valid {
			t := last.Time
			st.LastSubmissionAt = &t
		}
		stats = append(stats, st)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.StudentStats rows.Err: %w", err)
	}
	return stats, nil
}
