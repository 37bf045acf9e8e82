package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v3"
	"github.com/google/uuid"

	"github.com/pageza/recipebox/backend/internal/log"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKeyType struct{}

var requestIDKey requestIDKeyType

// RequestID assigns every request an id, echoes it in the response header
// and attaches it to the context logger. A well-formed id sent by the
// client is reused.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		ctx = log.AppendCtx(ctx, slog.String("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the id assigned by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// LogRequest logs one line per request once the response is written.
// Health probes are skipped.
func LogRequest(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Level: slog.LevelInfo,
		Skip: func(r *http.Request, respStatus int) bool {
			return respStatus == http.StatusOK && (r.URL.Path == "/health" || r.URL.Path == "/api/health")
		},
		LogExtraAttrs: func(r *http.Request, reqBody string, respStatus int) []slog.Attr {
			if id := RequestIDFromContext(r.Context()); id != "" {
				return []slog.Attr{slog.String("request_id", id)}
			}
			return []slog.Attr{slog.String("request_id", "N/A")}
		},
	})
}
