package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebox/backend/internal/database"
	applog "github.com/pageza/recipebox/backend/internal/log"
	"github.com/pageza/recipebox/backend/internal/store"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func seededStore(t *testing.T) *store.RecipeStore {
	t.Helper()
	s := store.NewRecipeStore(testhelpers.SetupSQLiteDatabase(t))
	_, err := database.Seed(context.Background(), s, applog.NullLogger())
	require.NoError(t, err)
	return s
}

func TestExport(t *testing.T) {
	uploader := &fakeUploader{}
	exporter := NewExporter(seededStore(t), uploader, "recipe-backups", applog.NullLogger())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exporter.now = func() time.Time { return fixed }

	result, err := exporter.Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Count)
	assert.Equal(t, len(uploader.body), result.Bytes)
	assert.Equal(t, "recipe-backups", aws.ToString(uploader.input.Bucket))
	assert.Equal(t, result.Key, aws.ToString(uploader.input.Key))
	assert.Equal(t, "application/json", aws.ToString(uploader.input.ContentType))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(uploader.body, &snap))
	assert.Equal(t, fixed, snap.TakenAt)
	assert.Equal(t, 3, snap.Count)
	require.Len(t, snap.Recipes, 3)
	assert.Equal(t, "Arepas con Queso", snap.Recipes[0].Name)
	assert.Len(t, snap.Recipes[0].Ingredients, 5)
}

func TestExportUploadFailure(t *testing.T) {
	boom := errors.New("access denied")
	exporter := NewExporter(seededStore(t), &fakeUploader{err: boom}, "recipe-backups", applog.NullLogger())

	_, err := exporter.Export(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	key, err := ObjectKey(at, ulid.DefaultEntropy())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "backups/recipes-"))
	assert.True(t, strings.HasSuffix(key, ".json"))

	id, err := ulid.Parse(strings.TrimSuffix(strings.TrimPrefix(key, "backups/recipes-"), ".json"))
	require.NoError(t, err)
	assert.Equal(t, at, ulid.Time(id.Time()).UTC())

	later, err := ObjectKey(at.Add(time.Second), ulid.DefaultEntropy())
	require.NoError(t, err)
	assert.Less(t, key, later)
}
