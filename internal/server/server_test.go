package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebox/backend/config"
	applog "github.com/pageza/recipebox/backend/internal/log"
	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/store"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:        config.Test,
		ServerHost:         "127.0.0.1",
		ServerPort:         "0",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLiteDatabase(t)
	svc := service.NewRecipeService(store.NewRecipeStore(db), applog.NullLogger())
	return New(cfg, db, svc, nil, applog.NullLogger())
}

func TestNew(t *testing.T) {
	srv := newTestServer(t, testConfig())
	require.NotNil(t, srv)
	assert.Equal(t, "127.0.0.1:0", srv.http.Addr)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}

func TestHandlerChain(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.Handler()

	body, err := json.Marshal(map[string]any{
		"name":        "Arepas con Queso",
		"description": "Corn cakes with cheese",
		"ingredients": []map[string]any{{"ingredientName": "Corn flour", "quantity": "2 cups"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/recipes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))

	var created model.Recipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	oldID := created.Ingredients[0].ID

	// the Arepas example: resubmitting an unchanged ingredient gives it a new id
	update, err := json.Marshal(map[string]any{
		"id":          created.ID,
		"name":        created.Name,
		"description": created.Description,
		"ingredients": []map[string]any{{"id": oldID, "ingredientName": "Corn flour", "quantity": "2 cups"}},
	})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/recipes/%d", created.ID), bytes.NewReader(update))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/recipes/%d", created.ID), nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got model.Recipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Ingredients, 1)
	assert.NotEqual(t, oldID, got.Ingredients[0].ID)
	assert.Equal(t, "Corn flour", got.Ingredients[0].IngredientName)
	assert.Equal(t, "2 cups", got.Ingredients[0].Quantity)
}

func TestErrorsCarryRequestID(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/recipes/999", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	assert.JSONEq(t, `{"error":"recipe not found"}`, rr.Body.String())
}

func TestStartAndShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := testConfig()
	cfg.ServerPort = fmt.Sprint(port)
	srv := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
