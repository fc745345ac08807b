package middleware

import (
	"net/http"
	"time"

	"adv-service/pkg/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog writes one line per request: 5xx responses go to the error
// logger, everything else to the info logger.
func AccessLog(loggers *logger.Loggers) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				event := loggers.InfoLogger.Info()
				if ww.Status() >= http.StatusInternalServerError {
					event = loggers.ErrorLogger.Error()
				}
				event.
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request handled")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
