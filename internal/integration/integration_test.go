package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/database"
	applog "github.com/pageza/recipebox/backend/internal/log"
	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/server"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/store"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

// setupServer runs the full handler chain against a migrated postgres.
func setupServer(t *testing.T) (http.Handler, *gorm.DB) {
	return setupServerWithLogger(t, applog.NullLogger())
}

func setupServerWithLogger(t *testing.T, logger *slog.Logger) (http.Handler, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupPostgresDatabase(t, "../../migrations")

	s := store.NewRecipeStore(db)
	_, err := database.Seed(t.Context(), s, applog.NullLogger())
	require.NoError(t, err)

	cfg := &config.Config{Environment: config.Test, ServerHost: "127.0.0.1", ServerPort: "0"}
	srv := server.New(cfg, db, service.NewRecipeService(s, logger), nil, logger)
	return srv.Handler(), db
}

// failedRequests returns the error of every "request failed" record in a
// JSON log stream.
func failedRequests(t *testing.T, logs []byte) []string {
	t.Helper()
	var errs []string
	dec := json.NewDecoder(bytes.NewReader(logs))
	for dec.More() {
		var record map[string]any
		require.NoError(t, dec.Decode(&record))
		if record["msg"] == "request failed" {
			errs = append(errs, fmt.Sprint(record["error"]))
		}
	}
	return errs
}

func send(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSeededRecipesOverHTTP(t *testing.T) {
	h, _ := setupServer(t)

	w := send(t, h, http.MethodGet, "/api/recipes?q=CHEESE", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var recipes []model.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipes))
	require.Len(t, recipes, 1)
	assert.Equal(t, "Arepas con Queso", recipes[0].Name)
	assert.True(t, recipes[0].IsFavorite)
}

func TestRecipeLifecycle(t *testing.T) {
	h, db := setupServer(t)

	w := send(t, h, http.MethodPost, "/api/recipes", map[string]any{
		"name":        "Pabellon Criollo",
		"description": "Shredded beef, black beans, rice and plantain",
		"ingredients": []map[string]any{
			{"ingredientName": "Flank steak", "quantity": "1 kg"},
			{"ingredientName": "Black beans", "quantity": "2 cups"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := fmt.Sprintf("/api/recipes/%d", created.ID)

	w = send(t, h, http.MethodPut, path, map[string]any{
		"id":          created.ID,
		"name":        "Pabellon Criollo",
		"description": "With tajadas",
		"ingredients": []map[string]any{
			{"id": created.Ingredients[0].ID, "ingredientName": "Flank steak", "quantity": "1 kg"},
			{"ingredientName": "Ripe plantain", "quantity": "2"},
		},
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	var got model.Recipe
	require.NoError(t, json.Unmarshal(send(t, h, http.MethodGet, path, nil).Body.Bytes(), &got))
	assert.Equal(t, "With tajadas", got.Description)
	require.Len(t, got.Ingredients, 2)
	assert.NotEqual(t, created.Ingredients[0].ID, got.Ingredients[0].ID)
	assert.Equal(t, "Ripe plantain", got.Ingredients[1].IngredientName)

	require.Equal(t, http.StatusNoContent, send(t, h, http.MethodDelete, path, nil).Code)

	var count int64
	require.NoError(t, db.Model(&model.Ingredient{}).Where("recipe_id = ?", created.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConcurrentUpdatesNeverMixIngredientSets(t *testing.T) {
	var logs bytes.Buffer
	h, db := setupServerWithLogger(t, applog.NewWithWriter(&logs, slog.LevelInfo))

	var recipe model.Recipe
	require.NoError(t, db.Where("name = ?", "Feijoada").First(&recipe).Error)
	path := fmt.Sprintf("/api/recipes/%d", recipe.ID)

	const writers = 8
	bodies := make([][]byte, writers)
	for i := range writers {
		body, err := json.Marshal(map[string]any{
			"id":          recipe.ID,
			"name":        "Feijoada",
			"description": fmt.Sprintf("writer %d", i),
			"ingredients": []map[string]any{
				{"ingredientName": fmt.Sprintf("writer %d beans", i), "quantity": "500 g"},
				{"ingredientName": fmt.Sprintf("writer %d pork", i), "quantity": "200 g"},
			},
		})
		require.NoError(t, err)
		bodies[i] = body
	}

	statuses := make([]int, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(bodies[i]))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			statuses[i] = w.Code
		}()
	}
	wg.Wait()

	succeeded, failed := 0, 0
	for i, status := range statuses {
		switch status {
		case http.StatusNoContent:
			succeeded++
		case http.StatusInternalServerError:
			failed++
		default:
			t.Errorf("writer %d: unexpected status %d", i, status)
		}
	}
	assert.GreaterOrEqual(t, succeeded, 1)

	errs := failedRequests(t, logs.Bytes())
	require.Len(t, errs, failed, "every 500 should log exactly one failure")
	for _, msg := range errs {
		assert.Contains(t, msg, "was modified concurrently")
	}

	var got model.Recipe
	require.NoError(t, json.Unmarshal(send(t, h, http.MethodGet, path, nil).Body.Bytes(), &got))
	require.Len(t, got.Ingredients, 2)

	writer := strings.TrimPrefix(got.Description, "writer ")
	for _, ing := range got.Ingredients {
		assert.True(t, strings.HasPrefix(ing.IngredientName, "writer "+writer+" "),
			"ingredient %q does not belong to the winning write %q", ing.IngredientName, got.Description)
	}

	var version int
	require.NoError(t, db.Model(&model.Recipe{}).Select("version").Where("id = ?", recipe.ID).Scan(&version).Error)
	assert.Equal(t, recipe.Version+succeeded, version)
}
