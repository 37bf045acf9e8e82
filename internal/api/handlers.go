package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/database"
	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/types"
)

// HealthCheck reports whether the API can reach its database.
func HealthCheck(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.HealthCheck(ctx, db); err != nil {
			log.WarnContext(ctx, "database health check failed", slog.Any("error", err))
			c.JSON(http.StatusServiceUnavailable, types.HealthResponse{
				Status:   "unhealthy",
				Database: "unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, types.HealthResponse{
			Status:   "healthy",
			Database: "connected",
		})
	}
}

// RegisterRoutes registers all API routes. limiter may be nil, in which case
// writes are not rate limited.
func RegisterRoutes(router *gin.Engine, db *gorm.DB, recipeService service.IRecipeService, limiter *middleware.RateLimiter, log *slog.Logger) {
	// Health check endpoints
	health := HealthCheck(db, log)
	router.GET("/health", health)
	router.GET("/api/health", health)

	apiGroup := router.Group("/api")
	if limiter != nil {
		apiGroup.Use(limiter.RateLimitMiddleware())
	}

	NewRecipeHandler(recipeService).RegisterRoutes(apiGroup)
}
