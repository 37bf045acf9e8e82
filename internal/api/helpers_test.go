package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	applog "github.com/pageza/recipebox/backend/internal/log"
	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/store"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

// setupRecipeTestRouter wires the real handlers, service and store against a
// fresh in-memory database.
func setupRecipeTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testhelpers.SetupSQLiteDatabase(t)
	svc := service.NewRecipeService(store.NewRecipeStore(db), applog.NullLogger())
	return newTestRouter(db, svc), db
}

func newTestRouter(db *gorm.DB, svc service.IRecipeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Recovery(applog.NullLogger()), middleware.ErrorHandler(applog.NullLogger()))
	RegisterRoutes(router, db, svc, nil, applog.NullLogger())
	return router
}

// doJSON sends body (raw if it is a string, JSON-encoded otherwise) and
// returns the recorded response.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
