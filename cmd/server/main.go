package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anonto42/socialpulse/backend/internal/middleware"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/anonto42/socialpulse/backend/internal/router"
	"github.com/anonto42/socialpulse/backend/pkg/config"
	"github.com/anonto42/socialpulse/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		config.NewLogger("error", "").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Error("Failed to initialize databases", "error", err)
		os.Exit(1)
	}
	defer db.CloseDB()

	userRepo := repositories.NewPostgresUserRepository(db.SQL)
	postRepo := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))

	// Firebase is only needed when it is the identity provider
	var idTokens middleware.IDTokenVerifier
	if cfg.AuthProvider == "firebase" {
		authClient, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath, log)
		if err != nil {
			log.Error("Failed to initialize Firebase", "error", err)
			os.Exit(1)
		}
		idTokens = authClient
	}
	verifier, err := router.NewTokenVerifier(cfg, idTokens, userRepo)
	if err != nil {
		log.Error("Failed to configure authentication", "error", err)
		os.Exit(1)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup global middleware
	router.SetupMiddleware(e, cfg, log)

	// Setup routes and dependencies
	svc, err := router.SetupRoutes(ctx, e, cfg, db.SQL, postRepo, verifier, log)
	if err != nil {
		log.Error("Failed to set up routes", "error", err)
		os.Exit(1)
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "auth", cfg.AuthProvider)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	// ctx is already cancelled, which closes every websocket session
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
	svc.Close()
	log.Info("Server stopped")
}
