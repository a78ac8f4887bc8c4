package controllers

import (
	"net/http"

	"github.com/bugabuga/commerce-backend/api/responses"
	"github.com/bugabuga/commerce-backend/pkg/config"
	"github.com/bugabuga/commerce-backend/pkg/db"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
	"github.com/bugabuga/commerce-backend/pkg/logger"
	"github.com/bugabuga/commerce-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Commerce-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness once the database answers. The cache is
// optional and only reported, never a reason to fail readiness.
func HealthReady(cfg *config.Config, database db.Pinger, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Commerce-Env", cfg.App.Env)

		if database == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "database unavailable"))
			return
		}
		if err := database.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database ping"))
			return
		}

		cacheStatus := "disabled"
		if cache != nil {
			cacheStatus = "up"
			if err := cache.Ping(r.Context()); err != nil {
				cacheStatus = "down"
			}
		}

		responses.WriteSuccess(w, map[string]string{
			"status":   "ready",
			"database": "up",
			"cache":    cacheStatus,
		})
	}
}
