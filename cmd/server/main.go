package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code_practice/internal/api"
	"code_practice/internal/app/service"
	"code_practice/internal/app/worker"
	"code_practice/internal/common/security"
	"code_practice/internal/domain/repository"
	"code_practice/internal/judge"
	"code_practice/internal/platform/cache"
	"code_practice/internal/platform/config"
	"code_practice/internal/platform/database"
	"code_practice/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	// 1. Configuration and logging
	config.Load()
	cfg := config.AppConfig
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	ctx := context.Background()

	// 2. JWT
	security.InitJWT(cfg.JWTKey, cfg.JWTExp)

	// 3. Database
	if err := database.Connect(cfg); err != nil {
		logger.Error(ctx, "database unavailable", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, database.DB); err != nil {
			logger.Error(ctx, "migration failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info(ctx, "schema applied")
	}

	// 4. Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Error(ctx, "redis unavailable", zap.Error(err))
		os.Exit(1)
	}
	defer cache.CloseRedis()

	// 5. Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)

	// 6. Execution engine: client, shared quota flag and the dispatcher in front of both
	judgeClient := judge.NewClient(judge.ClientConfig{
		BaseURL:      cfg.Judge0URL,
		APIKey:       cfg.Judge0APIKey,
		APIHost:      cfg.Judge0APIHost,
		AuthToken:    cfg.Judge0AuthToken,
		HTTPTimeout:  cfg.Judge0HTTPTimeout,
		PollAttempts: cfg.Judge0PollAttempts,
		PollInterval: cfg.Judge0PollInterval,
	}, nil)
	quota := judge.NewQuotaTracker(cache.NewQuotaStore(cache.RDB, cfg.QuotaKey))
	dispatchCfg := worker.Config{
		MinDelay:   cfg.DispatchMinDelay,
		MaxRetries: cfg.DispatchMaxRetries,
		Cooldown:   cfg.DispatchCooldown,
		MaxQueue:   cfg.DispatchMaxQueue,
	}
	dispatcher := worker.NewDispatcher(judgeClient, quota, dispatchCfg)

	// A request must outlive every cooldown of a rate-limited run so the caller sees the 429.
	engineRun := cfg.Judge0HTTPTimeout + time.Duration(cfg.Judge0PollAttempts)*cfg.Judge0PollInterval
	requestTimeout := dispatchCfg.RetryBudget(engineRun) + 30*time.Second

	// 7. Services
	gradingLocks := cache.NewLocker(cache.RDB, cfg.GradingLockPrefix, cfg.GradingLockTTL)
	submissionLimiter := cache.NewRateLimiter(cache.RDB, cfg.SubmissionRatePrefix, cfg.SubmissionRateLimit, cfg.SubmissionRateWindow)

	authService := service.NewAuthService(userRepo, cfg.AllowTeacherSignup)
	problemService := service.NewProblemService(problemRepo, submissionRepo)
	submissionService := service.NewSubmissionService(problemRepo, submissionRepo, dispatcher, gradingLocks)
	analyticsService := service.NewAnalyticsService(submissionRepo)

	// 8. Router & HTTP server
	router := api.NewRouter(api.Services{
		Auth:        authService,
		Problems:    problemService,
		Submissions: submissionService,
		Analytics:   analyticsService,
		Limiter:     submissionLimiter,

		RequestTimeout: requestTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info(ctx, "server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
			os.Exit(1)
		}
	}()

	<-stop

	logger.Info(ctx, "shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	// Fail queued submissions so their handlers can answer before the server drains.
	dispatcher.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown failed", zap.Error(err))
	}
	logger.Info(ctx, "server stopped")
}
