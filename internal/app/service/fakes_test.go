package service

import (
	"context"
	"strings"
	"sync"

	"code_practice/internal/app/worker"
	"code_practice/internal/common"
	"code_practice/internal/domain/model"
	"code_practice/internal/domain/repository"
	"code_practice/internal/judge"
)

type fakeProblemRepo struct {
	mu       sync.Mutex
	problems map[string]*model.Problem
}

func newFakeProblemRepo(problems ...*model.Problem) *fakeProblemRepo {
	r := &fakeProblemRepo{problems: map[string]*model.Problem{}}
	for _, p := range problems {
		r.problems[p.ID] = p
	}
	return r
}

func (r *fakeProblemRepo) Create(_ context.Context, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.problems {
		if existing.Slug == p.Slug {
			return common.ErrConflict
		}
	}
	cp := *p
	r.problems[p.ID] = &cp
	return nil
}

func (r *fakeProblemRepo) Update(_ context.Context, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[p.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *p
	r.problems[p.ID] = &cp
	return nil
}

func (r *fakeProblemRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.problems, id)
	return nil
}

func (r *fakeProblemRepo) FindByID(_ context.Context, id string) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	cp.TestCases = append([]model.TestCase(nil), p.TestCases...)
	return &cp, nil
}

func (r *fakeProblemRepo) FindBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	r.mu.Lock()
	var id string
	for _, p := range r.problems {
		if p.Slug == slug {
			id = p.ID
		}
	}
	r.mu.Unlock()
	if id == "" {
		return nil, common.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *fakeProblemRepo) List(_ context.Context, filter model.ProblemFilter) ([]model.Problem, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Problem
	for _, p := range r.problems {
		if filter.Difficulty != "" && p.Difficulty != filter.Difficulty {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

// fakeSubmissionRepo mirrors the first-pass award rule of the SQL implementation.
type fakeSubmissionRepo struct {
	mu      sync.Mutex
	saved   []model.Submission
	solved  map[string]map[string]bool
	points  map[string]int
	saveErr error
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{solved: map[string]map[string]bool{}, points: map[string]int{}}
}

func (r *fakeSubmissionRepo) SaveGraded(_ context.Context, sub *model.Submission, points int) (repository.Award, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return repository.Award{}, r.saveErr
	}
	var award repository.Award
	if sub.Passed {
		if r.solved[sub.UserID] == nil {
			r.solved[sub.UserID] = map[string]bool{}
		}
		if !r.solved[sub.UserID][sub.ProblemID] {
			r.solved[sub.UserID][sub.ProblemID] = true
			award.Points = points
		}
	}
	r.points[sub.UserID] += award.Points
	award.TotalPoints = r.points[sub.UserID]
	sub.PointsAwarded = award.Points
	r.saved = append(r.saved, *sub)
	return award, nil
}

func (r *fakeSubmissionRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]model.Submission, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Submission
	for _, s := range r.saved {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	total := len(out)
	if offset >= len(out) {
		return []model.Submission{}, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakeSubmissionRepo) SolvedProblemIDs(_ context.Context, userID string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]bool{}
	for id := range r.solved[userID] {
		out[id] = true
	}
	return out, nil
}

func (r *fakeSubmissionRepo) GetLeaderboard(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return []model.LeaderboardEntry{{Rank: 1, UserID: "u1", Points: 30}}, nil
}

func (r *fakeSubmissionRepo) StudentStats(_ context.Context) ([]model.StudentStats, error) {
	return []model.StudentStats{{UserID: "u1", Attempts: 2}}, nil
}

// fakeRunner answers Submit from a script of results; an exhausted script accepts with empty stdout.
type fakeRunner struct {
	mu       sync.Mutex
	offline  bool
	script   []runOutcome
	requests []judge.Request
}

type runOutcome struct {
	res *judge.Result
	err error
}

func accepted(stdout string) runOutcome {
	return runOutcome{res: &judge.Result{Status: judge.StatusFromID(judge.StatusIDAccepted), Stdout: stdout}}
}

func failed(err error) runOutcome {
	return runOutcome{err: err}
}

func (f *fakeRunner) Submit(_ context.Context, req judge.Request) (*judge.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.script) == 0 {
		return &judge.Result{Status: judge.StatusFromID(judge.StatusIDAccepted)}, nil
	}
	next := f.script[0]
	f.script = f.script[1:]
	return next.res, next.err
}

func (f *fakeRunner) Offline(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offline
}

func (f *fakeRunner) Status(context.Context) worker.Status {
	return worker.Status{State: worker.StateIdle, Offline: f.Offline(context.Background())}
}

func (f *fakeRunner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]bool{}} }

func (l *fakeLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, common.ErrLockFailed
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{users: map[string]*model.User{}} }

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return common.ErrConflict
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}
