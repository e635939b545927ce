package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vaibhavsh0120/Connect2Give/cmd"
	"github.com/Vaibhavsh0120/Connect2Give/internal/core/container"
	"github.com/Vaibhavsh0120/Connect2Give/internal/core/logger"
	"github.com/Vaibhavsh0120/Connect2Give/internal/core/routes"
	"github.com/Vaibhavsh0120/Connect2Give/internal/database"
	"github.com/Vaibhavsh0120/Connect2Give/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load .env file, but don't overwrite system environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	// Execute migration CMD
	cmd.Execute(ctx)
}

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	db, err := database.NewPostgresConnection(dbURL)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer db.Close()

	log.Println("Connected to the database successfully!")

	if os.Getenv("MIGRATE_ON_START") == "true" {
		if err := database.RunMigrations(db, "./migrations"); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}

	appLogger := logger.NewLogger()
	defer appLogger.Sync()

	appContainer := container.NewAppContainer(db, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go appContainer.Publisher.Run(ctx)
	go appContainer.ClaimSweeper.Run(ctx)

	router := gin.Default()
	router.Use(middleware.RecoveryMiddleware())

	routes.RegisterUtilityRoutes(router)
	routes.RegisterPublicRoutes(router, appContainer)
	routes.RegisterProtectedRoutes(router, appContainer)

	host := os.Getenv("APP_HOST")
	if host == "" {
		host = ":8080"
	}

	server := &http.Server{
		Addr:    host,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Server started", zap.String("addr", host))

	<-ctx.Done()
	appLogger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// Flush whatever the lifecycle handlers queued before the process exits.
	appContainer.Publisher.Shutdown()
	appLogger.Info("Server stopped")
}
