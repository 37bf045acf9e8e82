// Package backup exports every recipe as one JSON object in S3.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/store"
)

// KeyPrefix is the folder all snapshots are written under.
const KeyPrefix = "backups/"

// Uploader is the part of *s3.Client the exporter uses.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// RecipeLister supplies the recipes to back up.
type RecipeLister interface {
	ListRecipes(ctx context.Context, filter store.Filter) ([]model.Recipe, error)
}

// Snapshot is the document stored in the bucket.
type Snapshot struct {
	TakenAt time.Time      `json:"takenAt"`
	Count   int            `json:"count"`
	Recipes []model.Recipe `json:"recipes"`
}

// Result describes a completed export.
type Result struct {
	Key   string
	Count int
	Bytes int
}

// Exporter writes recipe snapshots to a bucket.
type Exporter struct {
	recipes  RecipeLister
	uploader Uploader
	bucket   string
	log      *slog.Logger
	now      func() time.Time
	entropy  io.Reader
}

func NewExporter(recipes RecipeLister, uploader Uploader, bucket string, log *slog.Logger) *Exporter {
	return &Exporter{
		recipes:  recipes,
		uploader: uploader,
		bucket:   bucket,
		log:      log,
		now:      time.Now,
		entropy:  ulid.DefaultEntropy(),
	}
}

// ObjectKey names the snapshot taken at t. Keys sort by time.
func ObjectKey(t time.Time, entropy io.Reader) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", fmt.Errorf("generating backup id: %w", err)
	}
	return KeyPrefix + "recipes-" + id.String() + ".json", nil
}

// Export uploads a snapshot of all recipes.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	recipes, err := e.recipes.ListRecipes(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}

	takenAt := e.now().UTC()
	body, err := json.Marshal(Snapshot{
		TakenAt: takenAt,
		Count:   len(recipes),
		Recipes: recipes,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	key, err := ObjectKey(takenAt, e.entropy)
	if err != nil {
		return nil, err
	}

	_, err = e.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", key, err)
	}

	e.log.InfoContext(ctx, "recipe backup uploaded",
		slog.String("bucket", e.bucket),
		slog.String("key", key),
		slog.Int("recipes", len(recipes)))
	return &Result{Key: key, Count: len(recipes), Bytes: len(body)}, nil
}
