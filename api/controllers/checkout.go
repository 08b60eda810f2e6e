package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maisonessence/storefront-checkout/api/middleware"
	"github.com/maisonessence/storefront-checkout/api/responses"
	"github.com/maisonessence/storefront-checkout/api/validators"
	"github.com/maisonessence/storefront-checkout/internal/cart"
	"github.com/maisonessence/storefront-checkout/internal/checkout"
	"github.com/maisonessence/storefront-checkout/internal/forms"
	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
	"github.com/maisonessence/storefront-checkout/pkg/logger"
)

type openSessionRequest struct {
	Cart cart.Cart `json:"cart"`
}

type openSessionResponse struct {
	SessionID string        `json:"session_id"`
	Step      checkout.Step `json:"step"`
}

// OpenSession starts a checkout attempt from the storefront cart.
func OpenSession(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload openSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		sess, err := mgr.Open(r.Context(), checkout.OpenRequest{
			UserID: identity.UserID,
			Cart:   payload.Cart,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, openSessionResponse{
			SessionID: sess.ID(),
			Step:      checkout.StepShipping,
		})
	}
}

// GetSession returns the machine state and draft for the storefront to
// render, including any retained field errors.
func GetSession(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := mgr.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess.State())
	}
}

type syncCartRequest struct {
	Cart cart.Cart `json:"cart"`
}

// SyncCart mirrors storefront cart edits into the session's cart. Emptying
// the cart closes the session.
func SyncCart(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if _, err := mgr.Get(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload syncCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := mgr.SyncCart(r.Context(), sessionID, payload.Cart); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"closed": payload.Cart.IsEmpty()})
	}
}

// Quote prices the live cart with the session's current selections.
func Quote(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := mgr.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := sess.Quote(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// SubmitShipping runs the shipping step.
func SubmitShipping(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := mgr.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var form forms.ShippingForm
		if err := validators.DecodeJSONBody(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if err := sess.SubmitShipping(r.Context(), identity.Token, form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess.State())
	}
}

// SubmitPayment runs the payment step.
func SubmitPayment(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := mgr.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var form forms.PaymentForm
		if err := validators.DecodeJSONBody(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := sess.SubmitPayment(r.Context(), form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess.State())
	}
}

type submitResponse struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

// Submit places the order from the review step.
func Submit(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := mgr.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		order, err := sess.Submit(r.Context(), identity.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, submitResponse{
			OrderID:     order.OrderID,
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
		})
	}
}

type backRequest struct {
	Step checkout.Step `json:"step" validate:"required"`
}

// Back navigates to a previously completed step.
func Back(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := mgr.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload backRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := sess.Back(payload.Step); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess.State())
	}
}

type clearFieldErrorRequest struct {
	Step  checkout.Step `json:"step" validate:"required"`
	Field string        `json:"field" validate:"required"`
}

// ClearFieldError drops one retained validation message once the shopper
// edits the offending field, so the form stops flagging stale input.
func ClearFieldError(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := mgr.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload clearFieldErrorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !payload.Step.Valid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown checkout step"))
			return
		}

		sess.ClearFieldError(payload.Step, payload.Field)
		responses.WriteSuccess(w, sess.State())
	}
}

// AbandonSession tears the session down when the shopper leaves checkout.
func AbandonSession(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id required"))
			return
		}
		mgr.Abandon(r.Context(), sessionID)
		responses.WriteSuccess(w, map[string]bool{"closed": true})
	}
}
