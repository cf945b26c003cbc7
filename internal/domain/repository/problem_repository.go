package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"code_practice/internal/common"
	"code_practice/internal/domain/model"

	"github.com/google/uuid"
)

type ProblemRepository interface {
	Create(ctx context.Context, problem *model.Problem) error
	Update(ctx context.Context, problem *model.Problem) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Problem, error)
	FindBySlug(ctx context.Context, slug string) (*model.Problem, error)
	List(ctx context.Context, filter model.ProblemFilter) ([]model.Problem, int, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

// Create inserts the problem and its test cases in one transaction.
func (r *pgProblemRepository) Create(ctx context.Context, p *model.Problem) error {
	startingCode, err := marshalStartingCode(p.StartingCode)
	if err != nil {
		return err
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `INSERT INTO problems (id, title, slug, description, difficulty, points, function_name, starting_code, created_by)
		          VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)
		          RETURNING created_at, updated_at`
		err := tx.QueryRowContext(ctx, query, p.ID, p.Title, p.Slug, p.Description, p.Difficulty, p.Points,
			p.FunctionName, startingCode, p.CreatedByID).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
			}
			return fmt.Errorf("pgProblemRepository.Create: %w", err)
		}
		return insertTestCases(ctx, tx, p.ID, p.TestCases)
	})
}

// Update rewrites the problem row and replaces its test cases.
func (r *pgProblemRepository) Update(ctx context.Context, p *model.Problem) error {
	startingCode, err := marshalStartingCode(p.StartingCode)
	if err != nil {
		return err
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `UPDATE problems SET
		            title = $1, slug = $2, description = $3, difficulty = $4, points = $5,
		            function_name = NULLIF($6, ''), starting_code = $7, updated_at = CURRENT_TIMESTAMP
		          WHERE id = $8
		          RETURNING updated_at`
		err := tx.QueryRowContext(ctx, query, p.Title, p.Slug, p.Description, p.Difficulty, p.Points,
			p.FunctionName, startingCode, p.ID).Scan(&p.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
			}
			return notFoundOr(err, "pgProblemRepository.Update")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM test_cases WHERE problem_id = $1`, p.ID); err != nil {
			return fmt.Errorf("pgProblemRepository.Update delete test cases: %w", err)
		}
		return insertTestCases(ctx, tx, p.ID, p.TestCases)
	})
}

func (r *pgProblemRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return notFoundOr(err, "pgProblemRepository.Delete")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Delete rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

const problemSelect = `
        SELECT p.id, p.title, p.slug, p.description, p.difficulty, p.points,
               COALESCE(p.function_name, ''), p.starting_code,
               p.created_by, u.username, p.created_at, p.updated_at
        FROM problems p
        LEFT JOIN users u ON p.created_by = u.id`

func (r *pgProblemRepository) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	return r.findOne(ctx, "pgProblemRepository.FindByID", problemSelect+` WHERE p.id = $1`, id)
}

func (r *pgProblemRepository) FindBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	return r.findOne(ctx, "pgProblemRepository.FindBySlug", problemSelect+` WHERE p.slug = $1`, slug)
}

func (r *pgProblemRepository) findOne(ctx context.Context, op, query string, arg interface{}) (*model.Problem, error) {
	p, err := scanProblem(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, notFoundOr(err, op)
	}
	p.TestCases, err = r.testCases(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProblemRepository) List(ctx context.Context, filter model.ProblemFilter) ([]model.Problem, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filter.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("p.difficulty = $%d", argID))
		args = append(args, filter.Difficulty)
		argID++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.title ILIKE $%d OR p.description ILIKE $%d)", argID, argID))
		args = append(args, "%"+filter.Search+"%")
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List count: %w", err)
	}

	query := problemSelect + where + fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.List scan: %w", err)
		}
		problems = append(problems, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List rows.Err: %w", err)
	}
	return problems, total, nil
}

func (r *pgProblemRepository) testCases(ctx context.Context, problemID string) ([]model.TestCase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, problem_id, input, expected_output, hidden, sort_order
		 FROM test_cases WHERE problem_id = $1 ORDER BY sort_order ASC`, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.testCases query: %w", err)
	}
	defer rows.Close()

	var cases []model.TestCase
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput, &tc.Hidden, &tc.SortOrder); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.testCases scan: %w", err)
		}
		cases = append(cases, tc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.testCases rows.Err: %w", err)
	}
	return cases, nil
}

func insertTestCases(ctx context.Context, tx *sql.Tx, problemID string, cases []model.TestCase) error {
	if len(cases) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO test_cases (id, problem_id, input, expected_output, hidden, sort_order) VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("insertTestCases prepare: %w", err)
	}
	defer stmt.Close()

	for i := range cases {
		tc := &cases[i]
		if tc.ID == "" {
			tc.ID = uuid.NewString()
		}
		tc.ProblemID = problemID
		tc.SortOrder = i + 1
		if _, err := stmt.ExecContext(ctx, tc.ID, problemID, tc.Input, tc.ExpectedOutput, tc.Hidden, tc.SortOrder); err != nil {
			return fmt.Errorf("insertTestCases exec for test case %d: %w", tc.SortOrder, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProblem(row rowScanner) (*model.Problem, error) {
	p := &model.Problem{}
	var startingCode []byte
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty, &p.Points,
		&p.FunctionName, &startingCode, &p.CreatedByID, &p.CreatedByUsername, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(startingCode) > 0 {
		if err := json.Unmarshal(startingCode, &p.StartingCode); err != nil {
			return nil, fmt.Errorf("decode starting_code: %w", err)
		}
	}
	return p, nil
}

func marshalStartingCode(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode starting_code: %w", err)
	}
	return string(b), nil
}
