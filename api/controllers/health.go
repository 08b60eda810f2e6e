package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/maisonessence/storefront-checkout/api/responses"
	"github.com/maisonessence/storefront-checkout/pkg/config"
	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
	"github.com/maisonessence/storefront-checkout/pkg/logger"
	"github.com/maisonessence/storefront-checkout/pkg/redis"
)

// HealthLive reports process liveness only.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady verifies the session store is reachable. The commerce backend
// is deliberately excluded: checkout degrades per-step when it is down and
// must not flap this service out of rotation.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{
			"status": "ready",
			"env":    cfg.App.Env,
		})
	}
}
