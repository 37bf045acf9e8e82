package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipebox/backend/internal/service"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

const internalErrorMessage = "internal server error"

// ErrorHandler renders the last error a handler pushed with c.Error as a
// JSON error response. Unclassified errors become 500s and are logged; their
// text never reaches the client.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last()
		status, msg := classify(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), "request failed",
				slog.String("method", c.Request.Method),
				slog.String("path", c.FullPath()),
				slog.Any("error", err.Err))
		}

		c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
	}
}

func classify(err *gin.Error) (int, string) {
	var verr *service.ValidationError
	switch {
	case err.IsType(gin.ErrorTypeBind):
		return http.StatusBadRequest, err.Error()
	case errors.As(err.Err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err.Err, service.ErrRecipeNotFound):
		return http.StatusNotFound, service.ErrRecipeNotFound.Error()
	case errors.Is(err.Err, service.ErrIngredientNotFound):
		return http.StatusNotFound, service.ErrIngredientNotFound.Error()
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

// Recovery turns a panic into a logged 500 with the standard error body.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic recovered",
			slog.String("path", c.Request.URL.Path),
			slog.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage})
	})
}
