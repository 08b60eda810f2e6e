package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maisonessence/storefront-checkout/api/controllers"
	"github.com/maisonessence/storefront-checkout/api/middleware"
	"github.com/maisonessence/storefront-checkout/internal/checkout"
	"github.com/maisonessence/storefront-checkout/pkg/config"
	"github.com/maisonessence/storefront-checkout/pkg/logger"
	"github.com/maisonessence/storefront-checkout/pkg/redis"
)

// NewRouter wires the checkout API surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisP redis.Pinger,
	manager *checkout.Manager,
	addresses controllers.AddressLister,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, redisP))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.With(middleware.OptionalAuth(cfg.JWT, logg)).
		Get("/api/checkout/addresses", controllers.ListSavedAddresses(addresses, logg))

	r.Route("/api/checkout/sessions", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Post("/", controllers.OpenSession(manager, logg))
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", controllers.GetSession(manager, logg))
			r.Delete("/", controllers.AbandonSession(manager, logg))
			r.Put("/cart", controllers.SyncCart(manager, logg))
			r.Get("/quote", controllers.Quote(manager, logg))
			r.Post("/shipping", controllers.SubmitShipping(manager, logg))
			r.Post("/payment", controllers.SubmitPayment(manager, logg))
			r.Post("/submit", controllers.Submit(manager, logg))
			r.Post("/back", controllers.Back(manager, logg))
			r.Post("/errors/clear", controllers.ClearFieldError(manager, logg))
		})
	})

	return r
}
