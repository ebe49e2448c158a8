package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"moneybook/internal/config"
	"moneybook/internal/database"
	"moneybook/internal/events"
	"moneybook/internal/logger"
	"moneybook/internal/money"
	"moneybook/internal/server"
	"moneybook/internal/services"
	"moneybook/internal/tokenstore"
	"moneybook/internal/validator"
)

// @title           Moneybook API
// @version         1.0
// @description     Moneybook is a personal finance ledger: accounts, categories, transactions and transfers with derived balances and monthly reports.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open the configured backend
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := tokenstore.New(ctx, appConfig.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect token store: %w", err)
	}
	defer tokens.Close()

	publisher, err := events.NewPublisher(appConfig.AMQPURL, appConfig.AMQPExchange)
	if err != nil {
		return fmt.Errorf("failed to connect event broker: %w", err)
	}
	bus := events.NewBus(publisher)
	defer bus.Close()

	// Initialize services
	db := dbManager.DB()
	gateway := services.NewGateway(db, services.GatewayOptions{
		Provider:   dbManager.Provider(),
		JWTSecret:  appConfig.JWTSecret,
		SessionTTL: appConfig.JWTExpirationDur,
		Tokens:     tokens,
		Bus:        bus,
	})
	if err := gateway.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	auditService := services.NewAuditService(db)

	unsubscribe := gateway.OnAuthStateChange(func(ev events.Event) {
		log.Infow("auth state changed", "event", ev.Type, "user_id", ev.UserID)
	})
	defer unsubscribe()

	validator.Register()

	router := server.NewRouter(server.Options{
		Gateway:       gateway,
		Audit:         auditService,
		Formatter:     money.NewFormatter(appConfig.Locale),
		Provider:      dbManager.Provider(),
		CORSOrigins:   appConfig.CORSOrigins,
		AuthRateLimit: appConfig.AuthRateLimit,
		Swagger:       true,
	})

	srv := server.New(appConfig.Port, router)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}
