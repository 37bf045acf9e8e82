// Command seed inserts the default recipes into an empty database. It is a
// no-op when any recipe already exists.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/database"
	"github.com/pageza/recipebox/backend/internal/log"
	"github.com/pageza/recipebox/backend/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.New(slog.LevelInfo).Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := log.New(log.ParseLevel(cfg.LogLevel))

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := database.RunMigrations(db, cfg.MigrationsDir, logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := database.Seed(ctx, store.NewRecipeStore(db), logger)
	if err != nil {
		logger.Error("failed to seed recipes", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seeding finished", slog.Int("created", n))
}
