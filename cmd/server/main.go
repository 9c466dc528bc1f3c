package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kasu/retention-backend/internal/config"
	"github.com/kasu/retention-backend/internal/database"
	"github.com/kasu/retention-backend/internal/handler"
	"github.com/kasu/retention-backend/internal/logger"
	"github.com/kasu/retention-backend/internal/metrics"
	"github.com/kasu/retention-backend/internal/middleware"
	"github.com/kasu/retention-backend/internal/repository"
	"github.com/kasu/retention-backend/internal/risk"
	"github.com/kasu/retention-backend/internal/router"
	"github.com/kasu/retention-backend/internal/scoring"
	"github.com/kasu/retention-backend/internal/service"
	"github.com/kasu/retention-backend/internal/validator"
	"github.com/kasu/retention-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Retention Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Scoring Capability ────────────────────────────────────────────
	provider := scoring.NewProvider(scoring.ProviderConfig{
		ModelPath:     cfg.ModelPath,
		RemoteURL:     cfg.ModelRemoteURL,
		RemoteTimeout: cfg.ModelRemoteTimeout,
	}, log)
	if _, err := provider.Load(); err != nil {
		log.Warn().Err(err).Msg("Model unavailable, running in demo mode")
	}

	scorerOpts := []risk.ScorerOption{risk.WithObserver(metrics.ScoreObserver{})}
	if cfg.DemoSeed != 0 {
		scorerOpts = append(scorerOpts, risk.WithRandomSource(risk.NewRandomSource(cfg.DemoSeed)))
	}
	assessor := risk.NewAssessor(risk.NewScorer(log, scorerOpts...))

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	predictionRepo := repository.NewPredictionRepository(pool)
	interventionRepo := repository.NewInterventionRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo, studentRepo, authService)
	alertService := service.NewAlertService(rdb)
	assessmentService := service.NewAssessmentService(studentRepo, predictionRepo, assessor, provider, alertService, rdb, log)
	studentService := service.NewStudentService(studentRepo, predictionRepo, interventionRepo)
	interventionService := service.NewInterventionService(interventionRepo, studentRepo, rdb, log)
	dashboardService := service.NewDashboardService(dashboardRepo, predictionRepo, studentRepo, rdb, cfg.DashboardCacheTTL, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(userService, authService),
		Assessment:    handler.NewAssessmentHandler(assessmentService),
		Student:       handler.NewStudentHandler(studentService),
		StudentPortal: handler.NewStudentPortalHandler(studentService),
		Intervention:  handler.NewInterventionHandler(interventionService),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		Model:         handler.NewModelHandler(provider, log),
		System:        handler.NewSystemHandler(rdb, provider, log),
		WS:            handler.NewWSHandler(alertService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	predictionWorker := worker.NewPredictionWorker(predictionRepo, rdb, log)
	go func() {
		predictionWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	authLimiter := middleware.NewRateLimiter(rdb, cfg.AuthRateLimitPerMin, time.Minute, log)
	r := router.SetupRouter(authService, authLimiter, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the prediction worker and wait for its final flush.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Prediction worker did not finish flushing")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
