// cmd/syncd/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/medkitapp/medkit-be/internal/adapters/auth"
	"github.com/medkitapp/medkit-be/internal/adapters/db"
	redis_a "github.com/medkitapp/medkit-be/internal/adapters/redis_adapter"
	"github.com/medkitapp/medkit-be/internal/core/domain"
	"github.com/medkitapp/medkit-be/internal/core/services"
	"github.com/medkitapp/medkit-be/internal/pkg/config"
	"github.com/medkitapp/medkit-be/internal/pkg/logger"
	"github.com/medkitapp/medkit-be/internal/store"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Initialize structured logger
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting medkit stock synchronization daemon",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
	)

	// Load configuration
	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize dependencies
	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	// Run database migrations outside production
	if cfg.App.Environment != "production" {
		if err := db.RunMigrations(ctx, cfg.GetDatabaseURL(), slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			// Don't exit in development, just warn
		}
	}

	// Bind the session to identity changes and start the aisle feed
	deps.session.Listen()
	if err := deps.aisleFeed.Start(ctx); err != nil {
		slogger.Error("failed to start aisle feed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Load the first page into the shared store
	if err := deps.syncEngine.FetchNextBatch(ctx, cfg.Sync.PageSize, "", domain.SortNone); err != nil {
		slogger.Warn("initial fetch failed", slog.String("error", err.Error()))
	}

	// Tail store changes and aisle updates until shutdown
	events, cancelEvents := deps.sharedStore.Subscribe()
	defer cancelEvents()
	aisles, cancelAisles := deps.aisleFeed.Subscribe()
	defer cancelAisles()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	slogger.Info("sync daemon running",
		slog.Int("page_size", cfg.Sync.PageSize),
		slog.Int("medicines", deps.sharedStore.MedicineCount()))

	for {
		select {
		case ev := <-events:
			slogger.Info("store changed",
				slog.String("kind", ev.Kind.String()),
				slog.Int("medicines", deps.sharedStore.MedicineCount()))
		case list := <-aisles:
			slogger.Info("aisles updated", slog.Any("aisles", list))
		case sig := <-shutdown:
			slogger.Info("shutdown signal received", slog.String("signal", sig.String()))
			deps.aisleFeed.Stop()
			deps.session.Unbind()
			slogger.Info("sync daemon shutdown complete")
			return
		}
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database    *db.Database
	redisClient *redis.Client
	sharedStore *store.SharedStore
	syncEngine  *services.MedicineSyncEngine
	mutations   *services.MedicineMutationEngine
	aisleFeed   *services.AisleFeed
	session     *services.SessionManager
	authService *services.AuthService
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	// Initialize database connection
	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	// Initialize Redis client
	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            cfg.GetRedisAddress(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})

	// Test Redis connection
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient

	// Initialize adapters
	notifier := redis_a.NewNotifier(redisClient, logger)
	gateway := db.NewMedicineGateway(database, notifier, &db.GatewayConfig{
		Channel:              cfg.Sync.MedicinesChannel,
		AisleRefreshInterval: cfg.Sync.AisleRefreshInterval,
	}, logger)
	authGateway := auth.NewGateway(database, &auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		JWTExpiration: cfg.Auth.JWTExpiration,
		BcryptCost:    cfg.Auth.BcryptCost,
	}, logger)

	// Initialize store and engines
	deps.sharedStore = store.NewSharedStore()
	deps.syncEngine = services.NewMedicineSyncEngine(gateway, deps.sharedStore, logger)
	deps.mutations = services.NewMedicineMutationEngine(gateway, deps.sharedStore, logger)
	deps.aisleFeed = services.NewAisleFeed(gateway, logger)
	deps.session = services.NewSessionManager(authGateway, logger)
	deps.authService = services.NewAuthService(authGateway, gateway, deps.session,
		[]services.Stopper{deps.aisleFeed}, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}
