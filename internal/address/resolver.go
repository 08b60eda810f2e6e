package address

import (
	"context"

	"github.com/maisonessence/storefront-checkout/internal/forms"
	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
	"github.com/maisonessence/storefront-checkout/pkg/metrics"
	"github.com/maisonessence/storefront-checkout/pkg/types"
)

type creator interface {
	CreateAddress(ctx context.Context, token string, draft types.Address) (types.Address, error)
}

// Resolver turns the shipping step's address choices into two concrete
// server-side address ids, creating drafts remotely only when no saved or
// previously created address covers the role.
type Resolver struct {
	api     creator
	metrics *metrics.CheckoutMetrics
}

// NewResolver builds the resolver.
func NewResolver(api creator, m *metrics.CheckoutMetrics) (*Resolver, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address api required")
	}
	return &Resolver{api: api, metrics: m}, nil
}

// Request carries one attempt's address inputs.
type Request struct {
	Token           string
	SavedShippingID string
	ShippingDraft   forms.AddressFields
	SameAsShipping  bool
	SavedBillingID  string
	BillingDraft    forms.AddressFields
}

// Resolution holds the selected ids plus a memo of ids this attempt has
// already created. The state machine caches it on the draft between
// continue attempts, which is what makes resolution idempotent: an id
// created on a failed or repeated attempt is reused, never re-created, even
// when the user flips "same as shipping" back and forth.
type Resolution struct {
	ShippingAddressID string `json:"shipping_address_id,omitempty"`
	BillingAddressID  string `json:"billing_address_id,omitempty"`
	CreatedShippingID string `json:"created_shipping_id,omitempty"`
	CreatedBillingID  string `json:"created_billing_id,omitempty"`
}

// Complete reports whether both roles have concrete ids.
func (r Resolution) Complete() bool {
	return r.ShippingAddressID != "" && r.BillingAddressID != ""
}

// InvalidateShipping drops the created shipping id after the user edits the
// shipping draft, so the next attempt persists the new fields.
func (r *Resolution) InvalidateShipping() {
	r.CreatedShippingID = ""
	r.ShippingAddressID = ""
}

// InvalidateBilling drops the created billing id after the user edits the
// billing draft.
func (r *Resolution) InvalidateBilling() {
	r.CreatedBillingID = ""
	r.BillingAddressID = ""
}

// Resolve produces both address ids. On failure it still returns whatever
// ids were produced before the failure so the caller can retain them; the
// error is attributed to the whole step, never to an individual field.
func (r *Resolver) Resolve(ctx context.Context, req Request, prior Resolution) (Resolution, error) {
	resolved := prior

	switch {
	case req.SavedShippingID != "":
		resolved.ShippingAddressID = req.SavedShippingID
	case resolved.CreatedShippingID != "":
		resolved.ShippingAddressID = resolved.CreatedShippingID
	default:
		created, err := r.create(ctx, req.Token, req.ShippingDraft, types.AddressTypeShipping)
		if err != nil {
			return resolved, stepError(err, types.AddressTypeShipping)
		}
		resolved.CreatedShippingID = created
		resolved.ShippingAddressID = created
	}

	switch {
	case req.SameAsShipping:
		resolved.BillingAddressID = resolved.ShippingAddressID
	case req.SavedBillingID != "":
		resolved.BillingAddressID = req.SavedBillingID
	case resolved.CreatedBillingID != "":
		resolved.BillingAddressID = resolved.CreatedBillingID
	default:
		created, err := r.create(ctx, req.Token, req.BillingDraft, types.AddressTypeBilling)
		if err != nil {
			return resolved, stepError(err, types.AddressTypeBilling)
		}
		resolved.CreatedBillingID = created
		resolved.BillingAddressID = created
	}

	return resolved, nil
}

func (r *Resolver) create(ctx context.Context, token string, fields forms.AddressFields, addressType types.AddressType) (string, error) {
	created, err := r.api.CreateAddress(ctx, token, fields.ToDraft(addressType))
	if err != nil {
		r.metrics.IncAddressCreate(string(addressType), "error")
		return "", err
	}
	r.metrics.IncAddressCreate(string(addressType), "ok")
	return created.AddressID, nil
}

func stepError(err error, addressType types.AddressType) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "address resolution failed").WithDetails(map[string]any{
		"step":         "shipping",
		"address_type": string(addressType),
	})
}
