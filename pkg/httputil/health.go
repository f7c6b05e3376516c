package httputil

import (
	"context"
	"net/http"
)

// HealthCheck reports the status of one dependency as a map with at least a
// "status" key of "up" or "down".
type HealthCheck func(ctx context.Context) map[string]string

// Health returns a /health handler. Any dependency reporting "down" turns
// the response into 503 with status "degraded".
func Health(service string, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "healthy",
			"service": service,
		}
		code := http.StatusOK

		for name, check := range checks {
			result := check(r.Context())
			body[name] = result
			if result["status"] == "down" {
				body["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		JSON(w, code, body)
	}
}
