package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sozoku-docs/internal/api"
	"sozoku-docs/internal/api/handlers"
	"sozoku-docs/internal/repository"
	"sozoku-docs/internal/service"
	"sozoku-docs/pkg/config"
	"sozoku-docs/pkg/logger"
	"sozoku-docs/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting sozoku-docs service")

	ctx := context.Background()

	// Document store backend
	var repo repository.DocumentRepository
	switch cfg.Store.Backend {
	case "postgres":
		db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		pgRepo := repository.NewPostgresRepository(db, appLogger)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			appLogger.Fatal("Failed to prepare database schema", zap.Error(err))
		}
		repo = pgRepo
	case "memory":
		repo = repository.NewMemoryRepository()
	default:
		appLogger.Fatal("Unknown store backend", zap.String("backend", cfg.Store.Backend))
	}

	// Vision collaborator
	vision, err := service.NewGeminiVision(ctx, &cfg.Gemini, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize vision client", zap.Error(err))
	}

	// Services
	reconciler := service.NewReconciler(appLogger)
	ocrService := service.NewOCRService(vision, reconciler, appLogger)
	classifier := service.NewClassifierService(vision, appLogger)
	docService := service.NewDocumentService(repo, classifier, ocrService, cfg.OCR.MaxParallel, cfg.OCR.ItemTimeout, appLogger)
	exportService := service.NewExportService(repo, appLogger)

	// Handlers
	ocrHandler := handlers.NewOCRHandler(docService, ocrService, appLogger)
	docHandler := handlers.NewDocumentHandler(docService, exportService, appLogger)

	// Router
	app := api.SetupRouter(&cfg.Server, ocrHandler, docHandler)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
