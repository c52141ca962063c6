package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/pkg/config"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
)

const serviceName = "rpg-market"

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RPG-Market-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "UP", "service": serviceName})
	}
}

// HealthReady pings every dependency and reports the first failure.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RPG-Market-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready").
						WithDetails(map[string]any{"dependency": name}))
				return
			}
			checks[name] = "UP"
		}
		responses.WriteSuccess(w, map[string]any{"status": "UP", "service": serviceName, "checks": checks})
	}
}
