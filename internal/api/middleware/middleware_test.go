package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"code_practice/internal/common"
	"code_practice/internal/common/security"
	"code_practice/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limiterFunc func(ctx context.Context, key string) error

func (f limiterFunc) Allow(ctx context.Context, key string) error { return f(ctx, key) }

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRateLimitKeysByUserThenAddress(t *testing.T) {
	var keys []string
	mw := RateLimit(limiterFunc(func(_ context.Context, key string) error {
		keys = append(keys, key)
		return nil
	}))(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	mw.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserIDCtxKey, "student-1"))
	mw.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"ip:10.0.0.1:1234", "student-1"}, keys)
}

func TestRateLimitRejectsAndFailsOpen(t *testing.T) {
	deny := RateLimit(limiterFunc(func(context.Context, string) error {
		return &common.RateLimitError{RetryAfter: 5 * time.Second}
	}))(okHandler)
	rec := httptest.NewRecorder()
	deny.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))

	broken := RateLimit(limiterFunc(func(context.Context, string) error {
		return errors.New("redis: connection refused")
	}))(okHandler)
	rec = httptest.NewRecorder()
	broken.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthenticatorAndTeacherOnly(t *testing.T) {
	security.InitJWT([]byte("middleware-secret"), time.Hour)
	chain := jwtauth.Verifier(security.TokenAuth)(Authenticator(TeacherOnly(okHandler)))

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, send(""))

	student, err := security.GenerateToken("s1", model.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, send(student))

	teacher, err := security.GenerateToken("t1", model.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, send(teacher))
}

func TestIdentifyLetsAnonymousThrough(t *testing.T) {
	security.InitJWT([]byte("middleware-secret"), time.Hour)
	var seen string
	h := jwtauth.Verifier(security.TokenAuth)(Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserIDFromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, seen)
}
