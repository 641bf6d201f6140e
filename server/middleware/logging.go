package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/kbukum/authkit/logger"
)

var quietPaths = []string{"/health", "/version"}

// RequestLogger returns middleware that logs every request with method,
// path, status code, response size and duration. Health and version probes are skipped.
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
			duration := time.Since(start)

			fields := map[string]interface{}{
				logger.FieldMethod:   r.Method,
				logger.FieldPath:     r.URL.Path,
				logger.FieldStatus:   sw.Status(),
				"bytes":              sw.bytes,
				logger.FieldDuration: duration.Milliseconds(),
				logger.FieldClientIP: r.RemoteAddr,
			}
			if duration > 500*time.Millisecond {
				fields["slow"] = true
			}

			logByStatus(log.WithContext(r.Context()), fields, sw.Status())
		})
	}
}

// logByStatus logs request fields at the appropriate level based on HTTP status code.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
