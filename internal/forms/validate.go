package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const giftMessageMaxLen = 200

var validate = validator.New()

// FieldErrors maps a field name to its validation message. An empty map
// means the step is valid.
type FieldErrors map[string]string

// Valid reports whether the step passed validation.
func (f FieldErrors) Valid() bool {
	return len(f) == 0
}

// Clear drops a single field's error after the user edits that field.
// Full-step validation still re-runs on every continue attempt.
func (f FieldErrors) Clear(field string) {
	delete(f, field)
}

func (f FieldErrors) set(field, message string) {
	f[field] = message
}

// ValidateShipping re-validates the whole shipping step. Draft address
// fields are required only when no saved address covers them.
func ValidateShipping(form ShippingForm) FieldErrors {
	errs := FieldErrors{}

	if err := validate.Var(form.Email, "required,email"); err != nil {
		if strings.TrimSpace(form.Email) == "" {
			errs.set("email", "is required")
		} else {
			errs.set("email", "must be a valid email address")
		}
	}

	if form.SavedShippingID == "" {
		requireAddress(errs, "shipping_address.", form.ShippingAddress)
	}

	if !form.UseShippingAsBilling && form.SavedBillingID == "" {
		requireAddress(errs, "billing_address.", form.BillingAddress)
	}

	if strings.TrimSpace(form.ShippingMethodID) == "" {
		errs.set("shipping_method_id", "is required")
	}

	if len(form.Gift.GiftMessage) > giftMessageMaxLen {
		errs.set("gift_options.gift_message", fmt.Sprintf("must be at most %d characters", giftMessageMaxLen))
	}

	return errs
}

// ValidatePayment re-validates the whole payment step. Card fields are
// required only for card payments; terms acceptance is required regardless.
func ValidatePayment(form PaymentForm) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(form.PaymentType) == "" {
		errs.set("payment_type", "is required")
	}

	if form.PaymentType == PaymentTypeCard {
		validateCard(errs, form.Card)
	}

	if !form.AcceptTerms {
		errs.set("accept_terms", "must be accepted")
	}

	return errs
}

func requireAddress(errs FieldErrors, prefix string, fields AddressFields) {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", fields.FirstName},
		{"last_name", fields.LastName},
		{"line1", fields.Line1},
		{"city", fields.City},
		{"state", fields.State},
		{"postal_code", fields.PostalCode},
		{"country", fields.Country},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			errs.set(prefix+field.name, "is required")
		}
	}
}

func validateCard(errs FieldErrors, card CardFields) {
	number := strings.ReplaceAll(strings.TrimSpace(card.Number), " ", "")
	if number == "" {
		errs.set("card.number", "is required")
	} else if err := validate.Var(number, "numeric,min=12,max=19"); err != nil {
		errs.set("card.number", "must be 12 to 19 digits")
	}

	if card.ExpiryMonth == "" {
		errs.set("card.expiry_month", "is required")
	} else if month, err := strconv.Atoi(card.ExpiryMonth); err != nil || month < 1 || month > 12 {
		errs.set("card.expiry_month", "must be between 1 and 12")
	}

	if card.ExpiryYear == "" {
		errs.set("card.expiry_year", "is required")
	} else if err := validate.Var(card.ExpiryYear, "numeric,len=4"); err != nil {
		errs.set("card.expiry_year", "must be a four-digit year")
	}

	if card.CVV == "" {
		errs.set("card.cvv", "is required")
	} else if err := validate.Var(card.CVV, "numeric,min=3,max=4"); err != nil {
		errs.set("card.cvv", "must be 3 or 4 digits")
	}

	if strings.TrimSpace(card.HolderName) == "" {
		errs.set("card.holder_name", "is required")
	}
}
