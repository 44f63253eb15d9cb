package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/catalog"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/config"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/database"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/handler"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/logger"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/middleware"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/repository"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/router"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/service"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/speech"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/validator"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/worker"
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
		Msg("Starting rehabilitation API")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Word Catalog ─────────────────────────────────────────────
	words, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load word catalog")
	}
	log.Info().Int("words", words.Len()).Msg("Word catalog loaded")

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

	// ─── Speech Pipeline ───────────────────────────────────────────────
	whisper, err := speech.NewWhisperClient(cfg.WhisperURL, cfg.SpeechLanguage, cfg.SpeechTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid speech service configuration")
	}
	if err := whisper.Ping(ctx); err != nil {
		// Text matching still works; audio checks fail until it comes up.
		log.Warn().Err(err).Str("url", cfg.WhisperURL).Msg("Speech service not reachable")
	}
	ffmpeg := speech.NewFFmpeg(cfg.FFmpegPath)

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewPracticeSessionRepository(pool)
	attemptRepo := repository.NewMatchAttemptRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo, sessionRepo, authService)
	practiceSessionService := service.NewPracticeSessionService(sessionRepo, words)
	mediaService := service.NewMediaService(cfg)
	attemptQueue := service.NewAttemptQueue(rdb)
	matchService := service.NewMatchService(words, whisper, ffmpeg, mediaService, attemptQueue, cfg.MatchThreshold)

	// ─── Initialize Handlers ──────────────────────────────────────────
	healthChecks := []handler.HealthCheck{
		{Name: "postgres", Critical: true, Ping: pool.Ping},
		{Name: "redis", Critical: true, Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		{Name: "speech", Ping: whisper.Ping},
	}
	queueLen := func(ctx context.Context) (int64, error) {
		return rdb.LLen(ctx, config.WorkerKey.MatchAttemptsQueue).Result()
	}

	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(userService),
		User:     handler.NewUserHandler(userService),
		Word:     handler.NewWordHandler(words),
		Practice: handler.NewPracticeHandler(matchService),
		Session:  handler.NewSessionHandler(practiceSessionService),
		WS:       handler.NewWSHandler(matchService, log, cfg.AllowedOrigins),
		System:   handler.NewSystemHandler(healthChecks, queueLen, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	attemptWorker := worker.NewMatchAttemptWorker(rdb, attemptRepo, cfg.MatchAttemptBatchSize, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		attemptWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, middleware.NewRedisCounter(rdb), handlers, cfg)

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

	// 2. Stop the worker and wait for its final flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
