package middleware

import (
	"context"
	"errors"
	"net/http"

	"code_practice/internal/common"
	"code_practice/internal/common/security"
	"code_practice/internal/domain/model"
	"code_practice/internal/platform/logger"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
)

// Authenticator rejects requests without a valid bearer token. It expects
// jwtauth.Verifier to have run first.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := identify(r.Context())
		if err != nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identify attaches the caller to the context when a valid token is present and lets
// anonymous requests through.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctx, err := identify(r.Context()); err == nil {
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func identify(ctx context.Context) (context.Context, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return ctx, err
	}
	if token == nil {
		return ctx, jwtauth.ErrNoTokenFound
	}

	userID, err := security.GetUserIDFromClaims(claims)
	if err != nil {
		return ctx, err
	}
	userRole, err := security.GetUserRoleFromClaims(claims)
	if err != nil {
		return ctx, err
	}

	ctx = context.WithValue(ctx, UserIDCtxKey, userID)
	ctx = context.WithValue(ctx, UserRoleCtxKey, userRole)
	return logger.WithUserID(ctx, userID), nil
}

func TeacherOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetUserRoleFromContext(r.Context())
		if !ok || role != model.RoleTeacher {
			common.RespondWithError(w, http.StatusForbidden, "Teacher access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}
