// Command backup uploads a JSON snapshot of every recipe to the configured
// S3 bucket and prints a presigned download URL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/backup"
	"github.com/pageza/recipebox/backend/internal/database"
	"github.com/pageza/recipebox/backend/internal/log"
	"github.com/pageza/recipebox/backend/internal/store"
)

func main() {
	expires := flag.Duration("url-expires", 15*time.Minute, "Lifetime of the presigned download URL")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.New(slog.LevelInfo).Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := log.New(log.ParseLevel(cfg.LogLevel))

	s3Cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		logger.Error("failed to configure S3", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	exporter := backup.NewExporter(store.NewRecipeStore(db), s3Cfg.Client, s3Cfg.BucketName, logger)
	result, err := exporter.Export(ctx)
	if err != nil {
		logger.Error("backup failed", slog.Any("error", err))
		os.Exit(1)
	}

	url, err := s3Cfg.GeneratePresignedURL(ctx, result.Key, *expires)
	if err != nil {
		logger.Error("failed to presign backup URL", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Println(url)
}
