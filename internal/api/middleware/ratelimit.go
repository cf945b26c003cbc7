package middleware

import (
	"context"
	"errors"
	"net/http"

	"code_practice/internal/common"
	"code_practice/internal/platform/logger"

	"go.uber.org/zap"
)

// Limiter counts one request for key and fails once the key is over budget.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// RateLimit throttles authenticated users by id and everyone else by remote address.
// A limiter backend failure lets the request through.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := GetUserIDFromContext(r.Context())
			if !ok {
				key = "ip:" + r.RemoteAddr
			}
			if err := limiter.Allow(r.Context(), key); err != nil {
				var rlErr *common.RateLimitError
				if errors.As(err, &rlErr) {
					common.RespondWithAppError(w, err)
					return
				}
				logger.Warn(r.Context(), "rate limiter unavailable", zap.Error(err))
			}
			next.ServeHTTP(w, r)
		})
	}
}
