package logging

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger is a chi middleware writing one access log line per request.
// It also stores a request-scoped logger in the context for zerolog.Ctx.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				event := log.Info()
				if ww.Status() >= http.StatusInternalServerError {
					event = log.Error()
				}
				event.
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()

			reqLog := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))
		})
	}
}
