package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/database"
	"github.com/pageza/recipebox/backend/internal/log"
	"github.com/pageza/recipebox/backend/internal/server"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.New(slog.LevelInfo).Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)
	logger.Info("starting recipe API", slog.String("environment", string(cfg.Environment)))

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := database.RunMigrations(db, cfg.MigrationsDir, logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	recipeStore := store.NewRecipeStore(db)

	if cfg.SeedDefaults {
		const seedTime = 30 * time.Second
		seedCtx, cancel := context.WithTimeout(ctx, seedTime)
		_, err := database.Seed(seedCtx, recipeStore, logger)
		cancel()
		if err != nil {
			logger.Error("failed to seed database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			// rate limiting is optional; keep serving without it
			logger.Warn("redis unavailable, rate limiting disabled", slog.Any("error", err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	recipeService := service.NewRecipeService(recipeStore, logger)
	srv := server.New(cfg, db, recipeService, redisClient, logger)

	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
