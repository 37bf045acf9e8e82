package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/api"
	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	handler http.Handler
	http    *http.Server
	logger  *slog.Logger
}

// New wires the routes and middleware. redisClient may be nil, which
// disables rate limiting.
func New(cfg *config.Config, db *gorm.DB, recipes service.IRecipeService, redisClient *redis.Client, logger *slog.Logger) *Server {
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.ErrorHandler(logger),
	)

	var limiter *middleware.RateLimiter
	if redisClient != nil && cfg.RateLimit > 0 {
		limiter = middleware.NewRecipeWriteRateLimiter(redisClient, cfg.RateLimit, cfg.RateLimitWindow, logger)
		logger.Info("rate limiting recipe writes",
			slog.Int("limit", cfg.RateLimit),
			slog.Duration("window", cfg.RateLimitWindow))
	}

	api.RegisterRoutes(router, db, recipes, limiter, logger)

	// request id first so the request log line carries it
	handler := middleware.RequestID(middleware.LogRequest(logger)(router))

	return &Server{
		router:  router,
		handler: handler,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
