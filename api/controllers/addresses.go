package controllers

import (
	"context"
	"net/http"

	"github.com/maisonessence/storefront-checkout/api/middleware"
	"github.com/maisonessence/storefront-checkout/api/responses"
	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
	"github.com/maisonessence/storefront-checkout/pkg/logger"
	"github.com/maisonessence/storefront-checkout/pkg/types"
)

type AddressLister interface {
	ListAddresses(ctx context.Context, token string) ([]types.Address, error)
}

// ListSavedAddresses returns the shopper's saved addresses so the shipping
// step can offer them alongside the draft form. Guests have none.
func ListSavedAddresses(api AddressLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if !identity.Authenticated() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "saved addresses require authentication"))
			return
		}

		addresses, err := api.ListAddresses(r.Context(), identity.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"addresses": addresses})
	}
}
