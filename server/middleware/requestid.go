package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/validation"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-Id"

// RequestID ensures every request has a UUID request ID. A client-supplied
// ID is kept when it is a valid UUID and replaced otherwise. The ID is
// echoed in the response and attached to the request context for logging.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || !validation.IsUUID(id) {
				id = uuid.NewString()
			}
			r.Header.Set(HeaderRequestID, id)
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
		})
	}
}
