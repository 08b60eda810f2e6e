package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/maisonessence/storefront-checkout/pkg/config"
)

// CORS applies the storefront origin policy. The browser checkout runs on a
// different origin than this service in every environment.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
