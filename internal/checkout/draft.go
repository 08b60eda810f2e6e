package checkout

import (
	"encoding/json"

	"github.com/maisonessence/storefront-checkout/internal/address"
	"github.com/maisonessence/storefront-checkout/internal/forms"
)

// Step identifies a checkout step. The sequence is linear: shipping, then
// payment, then review. There is no skipping ahead.
type Step string

const (
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
	StepReview   Step = "review"
)

var stepOrder = []Step{StepShipping, StepPayment, StepReview}

// Index returns the step's position in the sequence, or -1 for an unknown
// step.
func (s Step) Index() int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// Valid reports whether the step is one of the three known steps.
func (s Step) Valid() bool {
	return s.Index() >= 0
}

// Draft is the accumulated, not-yet-submitted checkout state. It is created
// empty when a session opens, mutated only by the active step's handler,
// consumed exactly once on submission, and discarded on success or on the
// cart-empty redirect.
//
// The JSON form doubles as the persisted snapshot written on every forward
// transition, so a page reload mid-flow resumes where the shopper left off.
type Draft struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`

	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	address.Resolution

	ShippingMethodID    string            `json:"shipping_method_id,omitempty"`
	Gift                forms.GiftOptions `json:"gift_options"`
	SpecialInstructions string            `json:"special_instructions,omitempty"`

	PaymentType     string `json:"payment_type,omitempty"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`

	Step      Step   `json:"step"`
	Completed []Step `json:"completed,omitempty"`

	// Fingerprints of the draft address fields last used for a create call.
	// Editing the fields between attempts invalidates the created id so the
	// next attempt persists the new values.
	ShippingFieldsFP string `json:"shipping_fields_fp,omitempty"`
	BillingFieldsFP  string `json:"billing_fields_fp,omitempty"`
}

// NewDraft returns an empty draft positioned at the shipping step.
func NewDraft(sessionID, userID string) Draft {
	return Draft{
		SessionID: sessionID,
		UserID:    userID,
		Step:      StepShipping,
	}
}

// StepCompleted reports whether the given step has been passed.
func (d Draft) StepCompleted(step Step) bool {
	for _, completed := range d.Completed {
		if completed == step {
			return true
		}
	}
	return false
}

func (d *Draft) markCompleted(step Step) {
	if !d.StepCompleted(step) {
		d.Completed = append(d.Completed, step)
	}
}

// fieldsFingerprint serializes draft address fields for change detection.
func fieldsFingerprint(fields forms.AddressFields) string {
	payload, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(payload)
}
