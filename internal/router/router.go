package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/anonto42/socialpulse/backend/internal/handlers"
	"github.com/anonto42/socialpulse/backend/internal/middleware"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/realtime"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/anonto42/socialpulse/backend/internal/services"
	"github.com/anonto42/socialpulse/backend/internal/validators"
	"github.com/anonto42/socialpulse/backend/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// Services are the long-lived notification components built by SetupRoutes.
// The caller owns their shutdown.
type Services struct {
	Registry  *realtime.Registry
	Channel   *realtime.Channel
	Publisher *services.Publisher
}

// Close stops the publisher after draining queued pushes
func (s *Services) Close() {
	s.Publisher.Close()
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config, log *slog.Logger) {
	e.Validator = validators.NewValidator()
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				log.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			log.Debug("request", attrs...)
			return nil
		},
	}))
	log.Debug("Global middleware configured.")
}

// NewTokenVerifier picks the identity adapter named by AUTH_PROVIDER
func NewTokenVerifier(cfg *config.Config, firebaseClient middleware.IDTokenVerifier, users middleware.FirebaseUserLookup) (middleware.TokenVerifier, error) {
	switch cfg.AuthProvider {
	case "jwt":
		return middleware.NewJWTVerifier(cfg.JWTSecret), nil
	case "firebase":
		if firebaseClient == nil {
			return nil, fmt.Errorf("firebase auth provider selected but no firebase client configured")
		}
		return middleware.NewFirebaseVerifier(firebaseClient, users), nil
	}
	return nil, fmt.Errorf("unsupported AUTH_PROVIDER %q", cfg.AuthProvider)
}

// SetupRoutes migrates the relational schema, builds the notification core and
// registers every route. ctx bounds the lifetime of websocket sessions.
func SetupRoutes(ctx context.Context, e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, postRepo repositories.PostRepository, verifier middleware.TokenVerifier, log *slog.Logger) (*Services, error) {
	if err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Like{},
		&models.Comment{},
		&models.Notification{},
	); err != nil {
		return nil, fmt.Errorf("failed to auto migrate models: %w", err)
	}
	log.Info("Relational auto-migrations completed.")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	interactionRepo := repositories.NewPostgresInteractionRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	// --- Notification core ---
	registry := realtime.NewRegistry()
	channel := realtime.NewChannel(registry, log.With("component", "realtime"), realtime.ChannelOptions{
		BufferSize: cfg.SessionBufferSize,
	})
	publisher := services.NewPublisher(notificationRepo, userRepo, registry, log.With("component", "publisher"), services.PublisherOptions{
		Workers:   cfg.DispatchWorkers,
		QueueSize: cfg.DispatchQueueSize,
	})
	publisher.Start()

	// Health check - always accessible
	e.GET("/health", handlers.NewHealthHandler(registry).HealthCheck)

	// Push channel authenticates from the query string
	handlers.NewWebSocketHandler(ctx, channel, verifier, cfg.AllowedOrigins).RegisterWebSocketRoutes(e)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	api.Use(middleware.Auth(verifier))

	handlers.NewPostHandler(postRepo).RegisterPostRoutes(api)
	handlers.NewFollowHandler(interactionRepo, userRepo, publisher).RegisterFollowRoutes(api)
	handlers.NewCommentHandler(interactionRepo, postRepo, publisher, log).RegisterCommentRoutes(api)
	handlers.NewLikeHandler(interactionRepo, postRepo, publisher, log).RegisterLikeRoutes(api)
	handlers.NewNotificationHandler(notificationRepo, userRepo, postRepo).RegisterNotificationRoutes(api)

	log.Info("All routes configured.")
	return &Services{Registry: registry, Channel: channel, Publisher: publisher}, nil
}
