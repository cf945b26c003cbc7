package api

import (
	"net/http"
	"time"

	"code_practice/internal/api/handler"
	"code_practice/internal/api/middleware"
	"code_practice/internal/common"
	"code_practice/internal/common/security"
	"code_practice/internal/judge"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

// Services groups what the HTTP layer calls into.
type Services struct {
	Auth        handler.AuthService
	Problems    handler.ProblemService
	Submissions handler.SubmissionService
	Analytics   handler.AnalyticsService
	Limiter     middleware.Limiter

	// RequestTimeout bounds each request. Values below defaultRequestTimeout are raised to it.
	RequestTimeout time.Duration
}

const defaultRequestTimeout = 120 * time.Second

func NewRouter(svc Services) http.Handler {
	requestTimeout := svc.RequestTimeout
	if requestTimeout < defaultRequestTimeout {
		requestTimeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(requestTimeout))

	// Looks for "Authorization: Bearer T" and stores the verified token in the context.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", handler.NewAuthHandler(svc.Auth).RegisterRoutes)
		api.Route("/problems", handler.NewProblemHandler(svc.Problems).RegisterRoutes)
		api.Route("/submissions", handler.NewSubmissionHandler(svc.Submissions, svc.Limiter).RegisterRoutes)
		api.Group(handler.NewAnalyticsHandler(svc.Analytics).RegisterRoutes)

		api.Get("/languages", func(w http.ResponseWriter, r *http.Request) {
			common.RespondWithJSON(w, http.StatusOK, judge.Languages())
		})
	})

	return r
}
