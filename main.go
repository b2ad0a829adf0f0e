package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/quiz-access-service/internal/cache"
	"github.com/SAP-F-2025/quiz-access-service/internal/config"
	"github.com/SAP-F-2025/quiz-access-service/internal/events"
	"github.com/SAP-F-2025/quiz-access-service/internal/handlers"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-access-service/internal/services"
	"github.com/SAP-F-2025/quiz-access-service/internal/session"
	"github.com/SAP-F-2025/quiz-access-service/internal/utils"
	"github.com/SAP-F-2025/quiz-access-service/internal/validator"
	"github.com/SAP-F-2025/quiz-access-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(slogLogger)
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory settings cache and sessions", "error", err)
		}
	}

	// Initialize repositories
	repoConfig := postgres.RepositoryConfig{
		DB:               db,
		RedisClient:      redisClient,
		SettingsCacheTTL: cfg.SettingsCacheTTL,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	}
	repoManager := postgres.NewRepositoryManager(repoConfig)
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Preflight session store
	var sessions session.Store = session.NewMemoryStore()
	if redisClient != nil {
		sessions = session.NewRedisStore(cache.NewCacheManager(redisClient).Session, cfg.SessionTTL)
	}

	// Attempt events
	publisher, err := newPublisher(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceConfig := services.DefaultServiceManagerConfig()
	serviceConfig.OverdueInterval = cfg.OverdueInterval
	serviceConfig.OverdueBatchSize = cfg.OverdueBatchSize

	serviceManager := services.NewServiceManager(repoManager, sessions, publisher, slogLogger, validator, serviceConfig)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Casdoor wins when both are configured
	var verifier handlers.TokenVerifier
	if cfg.Casdoor.Enabled() {
		verifier = handlers.NewCasdoorVerifier(cfg.Casdoor, repoManager.GetRepository().User())
	} else {
		verifier = handlers.NewHMACVerifier(cfg.JWTSecret)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, verifier, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := handlers.NewEngine(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Stops the overdue task and closes the publisher
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	// Closes the database and Redis connections
	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}

// newPublisher publishes to Kafka when brokers are configured, otherwise in-process
func newPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) > 0 {
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic, logger)
	}

	publisher, pubSub := events.NewGoChannelPublisher(cfg.EventsTopic, logger)
	messages, err := pubSub.Subscribe(context.Background(), cfg.EventsTopic)
	if err != nil {
		return nil, err
	}
	go func() {
		for msg := range messages {
			logger.Debug("Attempt event",
				"event_type", msg.Metadata.Get("event_type"),
				"quiz_id", msg.Metadata.Get("quiz_id"),
				"payload", string(msg.Payload))
			msg.Ack()
		}
	}()
	return publisher, nil
}
