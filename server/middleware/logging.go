package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/kbukum/attachkit/logger"
)

var quietPaths = []string{"/health"}

// RequestLogger returns middleware that logs every request with method,
// path, status code and duration. Health checks are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(quietPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"bytes", sw.written,
			)
			fields = logger.MergeWithDuration(fields, time.Since(start))
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}
			logByStatus(log, r, fields, sw.status)
		})
	}
}

// logByStatus logs at error for 5xx, warn for 4xx and debug otherwise. A
// nil log uses the global logger.
func logByStatus(log *logger.Logger, r *http.Request, fields map[string]interface{}, status int) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithContext(r.Context())
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
