package forms

import (
	"github.com/maisonessence/storefront-checkout/pkg/types"
)

// AddressFields are the user-entered draft address inputs. They stay local
// until the resolver persists them against the commerce backend.
type AddressFields struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// IsBlank reports whether no address field has been answered.
func (a AddressFields) IsBlank() bool {
	return a.FirstName == "" && a.LastName == "" && a.Line1 == "" && a.Line2 == "" &&
		a.City == "" && a.State == "" && a.PostalCode == "" && a.Country == "" && a.Phone == ""
}

// ToDraft converts the answered fields into a commerce address draft of the
// given type. Checkout drafts never become the account default.
func (a AddressFields) ToDraft(addressType types.AddressType) types.Address {
	var line2 *string
	if a.Line2 != "" {
		l2 := a.Line2
		line2 = &l2
	}
	return types.Address{
		AddressType: addressType,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Line1:       a.Line1,
		Line2:       line2,
		City:        a.City,
		State:       a.State,
		PostalCode:  a.PostalCode,
		Country:     a.Country,
		Phone:       a.Phone,
		IsDefault:   false,
	}
}

// GiftOptions are chosen on the shipping step. Gift receipt has no price
// effect; gift wrap adds a flat fee in the pricing engine.
type GiftOptions struct {
	GiftWrap    bool   `json:"gift_wrap"`
	GiftMessage string `json:"gift_message,omitempty"`
	GiftReceipt bool   `json:"gift_receipt"`
}

// ShippingForm carries every field the shipping step can answer. Selecting a
// saved address exempts the corresponding draft fields from validation.
type ShippingForm struct {
	Email                string        `json:"email"`
	SavedShippingID      string        `json:"saved_shipping_address_id,omitempty"`
	ShippingAddress      AddressFields `json:"shipping_address"`
	UseShippingAsBilling bool          `json:"use_shipping_as_billing"`
	SavedBillingID       string        `json:"saved_billing_address_id,omitempty"`
	BillingAddress       AddressFields `json:"billing_address"`
	ShippingMethodID     string        `json:"shipping_method_id"`
	Gift                 GiftOptions   `json:"gift_options"`
	SpecialInstructions  string        `json:"special_instructions,omitempty"`
}

// CardFields are collected for shape validation only; they are discarded
// after the payment step and never reach the draft snapshot or the order
// payload.
type CardFields struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
	HolderName  string `json:"holder_name"`
}

// PaymentForm carries the payment step's fields.
type PaymentForm struct {
	PaymentType     string     `json:"payment_type"`
	Card            CardFields `json:"card"`
	PaymentMethodID string     `json:"payment_method_id,omitempty"`
	AcceptTerms     bool       `json:"accept_terms"`
}

// PaymentTypeCard is the only payment type with extra required fields.
const PaymentTypeCard = "card"
