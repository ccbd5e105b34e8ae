package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes caps request bodies at 1 MiB, far above any sane todo
// payload.
const DefaultMaxBodyBytes = 1 << 20

// MaxBytes wraps request bodies in a MaxBytesReader so oversized payloads
// fail with 413 instead of being buffered.
func MaxBytes(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
