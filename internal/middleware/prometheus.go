package middleware

import (
	"net/http"
	"time"

	"github.com/nurbekov/csvtodo/internal/metrics"
)

// Prometheus records duration and count per request. Mount after Recoverer
// and RequestID so metrics cover what actually ran. The /metrics scrape
// itself is not recorded.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if r.URL.Path == "/metrics" {
			return
		}
		path := r.URL.Path
		if path == "" {
			path = "/"
		}
		metrics.RecordRequest(r.Method, path, rec.status, time.Since(start).Seconds())
	})
}
