package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gradewatch/internal/config"
	"gradewatch/internal/database"
	"gradewatch/internal/handlers"
	"gradewatch/internal/repository"
	"gradewatch/internal/security"
	"gradewatch/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	ctx := context.Background()
	if err := db.RunMigrations(ctx, migrationsFS(cfg)); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	store := repository.NewSQLGradingStore(db)
	studentRepo := repository.NewStudentRepository(db)

	// Initialize services
	gradebook := service.NewGradebookService(store, studentRepo)
	if err := gradebook.Load(ctx); err != nil {
		log.Fatalf("Failed to load gradebook: %v", err)
	}

	backupService := service.NewBackupService(store, studentRepo, gradebook)

	alertService, err := service.NewAlertService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize alert service: %v", err)
	}

	var verifier *security.TokenVerifier
	if cfg.AuthEnabled() {
		verifier = security.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	} else {
		log.Println("Warning: JWT_SECRET not set, API authentication is disabled")
	}

	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()

	// Setup routes
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, handlers.NewGradebookHandler(gradebook, alertService, backupService), handlers.NewMiddleware(verifier, limiter))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// migrationsFS prefers an on-disk migrations directory when one is configured
func migrationsFS(cfg *config.Config) fs.FS {
	if cfg.MigrationsPath != "" {
		log.Printf("Using migrations from %s", cfg.MigrationsPath)
		return os.DirFS(cfg.MigrationsPath)
	}
	return database.EmbeddedMigrations()
}
