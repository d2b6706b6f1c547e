package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"moment/internal/auth"
	"moment/internal/config"
	"moment/internal/domain/repositories"
	"moment/internal/handler"
	"moment/internal/middleware"
	"moment/internal/repository/postgres"
	"moment/internal/service/ai"
	"moment/internal/service/devices"
	"moment/internal/service/storage"
	syncsvc "moment/internal/service/sync"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging. DEBUG defaults on outside prod and can be
	// forced either way per deployment.
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	stores := repositories.Stores{
		Notes:      postgres.NewNoteStore(repoConfig),
		Tags:       postgres.NewTagStore(repoConfig),
		TodoItems:  postgres.NewTodoItemStore(repoConfig),
		NoteImages: postgres.NewNoteImageStore(repoConfig),
	}
	deviceRepo := postgres.NewDeviceRepository(repoConfig)
	statsRepo := postgres.NewAIStatsRepository(repoConfig)
	clock := postgres.NewSystemClock(pool)
	txManager := postgres.NewTransactionManager(pool)

	// Sync services
	reconciler := syncsvc.NewReconciler(stores, logger)
	deltaEngine := syncsvc.NewDeltaEngine(stores, logger)
	orchestrator := syncsvc.NewOrchestrator(reconciler, deltaEngine, txManager, clock, logger)

	// Blob storage
	presigner, err := storage.NewPresigner(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create storage presigner: %v", err)
	}

	// AI services
	prompts, err := ai.LoadPrompts()
	if err != nil {
		log.Fatalf("Failed to load prompt templates: %v", err)
	}
	summarizer, err := ai.NewSummarizer(cfg.AnthropicAPIKey, cfg.SummaryModels, prompts, logger)
	if err != nil {
		log.Fatalf("Failed to create summarizer: %v", err)
	}
	jobs := ai.NewJobRegistry()
	transcriber := ai.NewTranscriber(presigner, jobs, cfg.TranscribeAPIURL, cfg.TranscribeAPIKey, logger)

	// Device registration
	deviceService := devices.NewService(deviceRepo, logger)

	// Auth credential flows
	gotrue := auth.NewGoTrueClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)

	// Create handlers
	syncHandler := handler.NewSyncHandler(orchestrator, logger)
	authHandler := handler.NewAuthHandler(gotrue, logger)
	storageHandler := handler.NewStorageHandler(presigner, logger)
	aiHandler := handler.NewAIHandler(transcriber, summarizer, jobs, statsRepo, logger)
	deviceHandler := handler.NewDeviceHandler(deviceService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", syncHandler.HealthCheck)

	// Auth routes
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/refresh", authHandler.Refresh)
	mux.HandleFunc("GET /auth/me", authHandler.Me)

	// Sync route
	mux.HandleFunc("POST /sync", syncHandler.Sync)

	// Storage routes
	mux.HandleFunc("POST /storage/presigned-url", storageHandler.CreatePresignedURL)
	mux.HandleFunc("GET /storage/file/{key...}", storageHandler.GetFile)

	// Device routes
	mux.HandleFunc("POST /devices/fcm-token", deviceHandler.RegisterFCMToken)

	// AI routes
	mux.HandleFunc("POST /ai/transcribe", aiHandler.Transcribe)
	mux.HandleFunc("GET /ai/jobs/{id}", aiHandler.GetJobStatus)
	mux.HandleFunc("POST /ai/summarize", aiHandler.Summarize)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.Auth(jwtVerifier)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
