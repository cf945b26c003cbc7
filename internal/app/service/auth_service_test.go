package service

import (
	"context"
	"testing"
	"time"

	"code_practice/internal/common"
	"code_practice/internal/common/security"
	"code_practice/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	security.InitJWT([]byte("test-secret"), time.Hour)
	return NewAuthService(newFakeUserRepo(), true)
}

func TestRegisterDefaultsToStudent(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Register(context.Background(), RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, resp.User.Role)
	assert.Empty(t, resp.User.HashedPassword)
	assert.NotEmpty(t, resp.Token)

	token, err := security.TokenAuth.Decode(resp.Token)
	require.NoError(t, err)
	role, ok := token.Get("role")
	require.True(t, ok)
	assert.Equal(t, model.RoleStudent, role)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing username", RegisterRequest{Email: "a@b.io", Password: "secret1"}},
		{"bad email", RegisterRequest{Username: "a", Email: "not-an-email", Password: "secret1"}},
		{"short password", RegisterRequest{Username: "a", Email: "a@b.io", Password: "12345"}},
		{"unknown role", RegisterRequest{Username: "a", Email: "a@b.io", Password: "secret1", Role: "admin"}},
		{"blank username", RegisterRequest{Username: "   ", Email: "a@b.io", Password: "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, 400, common.HTTPStatusFromError(err))
		})
	}
}

func TestRegisterValidationNamesFields(t *testing.T) {
	svc := newAuthService(t)
	_, err := svc.Register(context.Background(), RegisterRequest{Username: "a", Email: "not-an-email", Password: "12345"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "password must be at least 6 characters")
}

func TestRegisterTeacherSignupCanBeDisabled(t *testing.T) {
	security.InitJWT([]byte("test-secret"), time.Hour)
	svc := NewAuthService(newFakeUserRepo(), false)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "t", Email: "t@example.com", Password: "secret1", Role: model.RoleTeacher})
	assert.ErrorIs(t, err, common.ErrForbidden)

	resp, err := svc.Register(ctx, RegisterRequest{Username: "s", Email: "s@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, resp.User.Role)
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "secret1", Role: model.RoleTeacher})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "ada", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	byName, err := svc.Login(ctx, LoginRequest{LoginField: "ada", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, byName.User.ID)

	byEmail, err := svc.Login(ctx, LoginRequest{LoginField: "ADA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, byEmail.User.ID)

	_, err = svc.Login(ctx, LoginRequest{LoginField: "ada", Password: "wrong-password"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.Login(ctx, LoginRequest{LoginField: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestProfile(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.Profile(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.Empty(t, user.HashedPassword)

	_, err = svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAnalyticsStudentStatsRequiresTeacher(t *testing.T) {
	svc := NewAnalyticsService(newFakeSubmissionRepo())
	ctx := context.Background()

	_, err := svc.StudentStats(ctx, studentViewer)
	assert.ErrorIs(t, err, common.ErrForbidden)

	stats, err := svc.StudentStats(ctx, teacherViewer)
	require.NoError(t, err)
	assert.Len(t, stats, 1)

	board, err := svc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, board[0].Rank)
}
