package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/maisonessence/storefront-checkout/api/responses"
	"github.com/maisonessence/storefront-checkout/pkg/config"
	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
	"github.com/maisonessence/storefront-checkout/pkg/logger"
)

type storefrontClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// OptionalAuth seeds the request context with the shopper identity when a
// bearer token is present. Requests without a token proceed as guests; a
// token that is present but invalid is rejected rather than silently
// downgraded.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			identity, err := parseToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			if logg != nil {
				ctx = logg.WithUserID(ctx, identity.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(cfg config.JWTConfig, token string) (Identity, error) {
	var opts []jwt.ParserOption
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &storefrontClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unexpected signing method")
		}
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if !parsed.Valid || claims.Subject == "" {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}

	return Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Token:  token,
	}, nil
}
