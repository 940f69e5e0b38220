package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"expense_tribute/internal/backend"
	"expense_tribute/internal/config"
	"expense_tribute/internal/events"
	"expense_tribute/internal/handler"
	"expense_tribute/internal/log"
	"expense_tribute/internal/metrics"
	"expense_tribute/internal/model"
	"expense_tribute/internal/service"
	"expense_tribute/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// --- Configuration ---
	cfg := config.Load()

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logCfg.JSON = strings.EqualFold(cfg.LogFormat, "json")
	logger := log.New(logCfg)
	log.SetDefault(logger)

	if envErr != nil {
		logger.Info("No .env file found or error loading, relying on environment variables")
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	store, err := backend.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage backend", log.FieldBackend, cfg.StorageBackend, log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage backend", log.FieldError, err)
		}
	}()

	// --- Events ---
	publisher := newPublisher(cfg, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", log.FieldError, err)
		}
	}()

	// --- Services ---
	allowlist := model.NewAllowlist(cfg.AdminEmails)
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, utils.TokenTTL)

	authService := service.NewAuthService(store.Users, jwtUtil, allowlist, logger)
	expenseService := service.NewExpenseService(store.Expenses, store.Users, publisher, logger)
	adminService := service.NewAdminService(store.Users, store.Expenses, allowlist)

	// --- Router ---
	router := handler.NewRouter(handler.RouterDeps{
		Auth:      authService,
		Expenses:  expenseService,
		Admin:     adminService,
		Users:     store.Users,
		JWT:       jwtUtil,
		Allowlist: allowlist,
		Ping:      store.Ping,
		StaticDir: cfg.StaticDir,
		Logger:    logger,
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", log.FieldOperation, log.OpStartup, "port", cfg.Port, log.FieldBackend, store.Type, "admin_emails", len(allowlist))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...", log.FieldOperation, log.OpShutdown)
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", log.FieldError, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", log.FieldError, err)
	}

	logger.Info("Server exiting")
}

// newPublisher connects to AMQP when configured. A broker that is down at
// startup degrades to no events rather than no server.
func newPublisher(cfg *config.Config, logger *log.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.NopPublisher{}
	}

	amqpLogger := logger.WithComponent(log.ComponentAMQP)
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		amqpLogger.Warn("AMQP unavailable, expense events disabled", log.FieldError, err)
		return events.NopPublisher{}
	}
	amqpLogger.Info("Publishing expense events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return publisher
}
