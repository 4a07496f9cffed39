package http

import (
	"net/http"
	"time"

	"github.com/mlevkov/go-note-sync/internal/logger"
)

// withLogging emits one access-log entry per request through the
// request-scoped logger, so every entry carries the trace id attached by
// withTraceID. The mutating endpoints carry encrypted payloads; only
// transport-level facts are logged, never bodies.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)
		start := time.Now()

		lw := &responseWriter{
			ResponseWriter: w,
		}

		next.ServeHTTP(lw, r)

		log.Info().
			Str("uri", r.RequestURI).
			Str("method", r.Method).
			Int("status", lw.status).
			Dur("duration", time.Since(start)).
			Int("size", lw.size).
			Send()
	})
}
