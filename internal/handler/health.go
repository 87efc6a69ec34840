package handler

import (
	"context"
	"encoding/json"
	"net/http"
)

// Pinger is a backing service the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler returns a health check endpoint. Every named dependency must answer.
func HealthHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status":     "unhealthy",
					"dependency": name,
					"error":      err.Error(),
				})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}
