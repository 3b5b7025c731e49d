package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/config"
	"alfredoptarigan/candidate-ranker/internal/handlers"
	"alfredoptarigan/candidate-ranker/internal/logger"
	"alfredoptarigan/candidate-ranker/internal/metrics"
	"alfredoptarigan/candidate-ranker/internal/repositories"
	"alfredoptarigan/candidate-ranker/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("❌ Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := cfg.Validate(); err != nil {
		zlog.Fatal("❌ Invalid configuration", zap.Error(err))
	}
	zlog.Info("✅ Config loaded successfully", zap.String("env", cfg.Server.Env))

	// Initialize database
	db, err := config.InitDatabase(cfg, zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to initialize database", zap.Error(err))
	}

	// Initializes repositories
	candidateRepo := repositories.NewCandidateRepository(db)
	scoreRepo := repositories.NewScoreRepository(db)
	zlog.Info("✅ Repositories initialized successfully")

	ctx := context.Background()

	// Job store, nil when disabled
	store, closeStore := config.InitJobStore(ctx, cfg, zlog)
	defer func() { _ = closeStore() }()

	recorder := metrics.NewManager()

	engine, err := newScoringEngine(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to initialize scoring engine", zap.Error(err))
	}
	zlog.Info("✅ Scoring engine initialized", zap.String("engine", cfg.Engine.Kind))

	// Initialize worker
	worker := services.NewWorker(
		services.NewBatchProcessor(store, engine, recorder, zlog),
		cfg.Worker.Concurrency,
		cfg.Worker.QueueSize,
		recorder,
		zlog,
	)
	worker.Start(ctx)

	orchestrator := services.NewOrchestrator(
		store,
		services.NewDedupResolver(store, scoreRepo, zlog),
		engine,
		worker,
		candidateRepo,
		scoreRepo,
		recorder,
		services.OrchestratorConfig{MaxJobDescriptionLength: cfg.Scoring.MaxJobDescriptionLength},
		zlog,
	)
	materializer := services.NewMaterializer(store, candidateRepo, scoreRepo, recorder, zlog)
	zlog.Info("✅ Services initialized successfully")

	// Initialize Handlers
	scoreHandler := handlers.NewScoreHandler(
		orchestrator,
		candidateRepo,
		services.NewPDFParserService(),
		cfg.Storage.MaxFileSize,
		zlog,
	)
	statusHandler := handlers.NewStatusHandler(materializer)
	healthHandler := handlers.NewHealthHandler(store)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Candidate Ranker API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/health", healthHandler.HandleHealth)
	api.Post("/score", scoreHandler.HandleScore)
	api.Post("/score/upload", scoreHandler.HandleUpload)
	api.Post("/status", statusHandler.HandleStatus)

	app.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Candidate Ranker API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/score",
				"POST /api/v1/score/upload",
				"POST /api/v1/status",
				"GET /api/v1/health",
				"GET /metrics",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			zlog.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zlog.Error("❌ Failed to start server", zap.Error(err))
	}

	// Queued batches finish before the process exits.
	worker.Stop()
}

func newScoringEngine(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (services.ScoringEngine, error) {
	switch cfg.Engine.Kind {
	case "gemini":
		generator, err := services.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		return services.NewGeminiEngine(generator, cfg.Gemini.MaxParseAttempts, zlog), nil
	default:
		return services.NewHTTPEngine(cfg.Engine.URL, cfg.Engine.Timeout), nil
	}
}
