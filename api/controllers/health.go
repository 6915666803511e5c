package controllers

import (
	"context"
	"net/http"

	"github.com/attirely/storefront-backend/api/responses"
	"github.com/attirely/storefront-backend/pkg/config"
)

// Pinger is the readiness probe contract for optional backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness, including the redis backend when one is
// wired. A nil pinger means the engine runs on in-memory stores.
func HealthReady(cfg *config.Config, redisPinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		status := map[string]string{"status": "ready", "kvstore": "memory"}
		if redisPinger != nil {
			status["kvstore"] = "redis"
			if err := redisPinger.Ping(r.Context()); err != nil {
				status["status"] = "degraded"
				status["kvstore"] = "unreachable"
			}
		}
		responses.WriteSuccess(w, status)
	}
}
