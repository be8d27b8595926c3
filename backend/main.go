package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"octofit/backend/config"
	"octofit/backend/database"
	"octofit/backend/events"
	"octofit/backend/locks"
	"octofit/backend/routes"
	"octofit/backend/services"
	"octofit/backend/utils"

	"go.uber.org/zap"
)

const (
	leaderboardLockKey = "octofit:leaderboard:refresh"
	shutdownTimeout    = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("Error initializing database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("Error closing database", zap.Error(err))
		}
	}()

	locker, err := newLocker(cfg, logger)
	if err != nil {
		logger.Fatal("Error initializing leaderboard lock", zap.Error(err))
	}

	publisher := newPublisher(cfg, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Error closing event publisher", zap.Error(err))
		}
	}()

	app := routes.NewApp(routes.Dependencies{
		DB:          db,
		Cfg:         cfg,
		Logger:      logger,
		Leaderboard: services.NewLeaderboardService(db, locker, publisher, logger.Named("leaderboard")),
		Publisher:   publisher,
	})

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.ServerPort), zap.String("env", cfg.Env))
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logger.Fatal("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
}

// newLocker uses Redis when REDIS_URL is set so that every instance shares
// one refresh lock.
func newLocker(cfg *config.Config, logger *zap.Logger) (locks.Locker, error) {
	if cfg.RedisURL == "" {
		logger.Info("Using in-process leaderboard lock")
		return locks.NewLocalLocker(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := locks.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	logger.Info("Using Redis leaderboard lock")
	return locks.NewRedisLocker(client, leaderboardLockKey, cfg.LeaderboardLockTTL, logger.Named("locks")), nil
}

func newPublisher(cfg *config.Config, logger *zap.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NopPublisher{}
	}
	logger.Info("Publishing events to Kafka",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
	)
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}
