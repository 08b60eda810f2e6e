package forms

import (
	"strings"
	"testing"
)

func fullAddress() AddressFields {
	return AddressFields{
		FirstName:  "Ada",
		LastName:   "Laurent",
		Line1:      "12 Rue des Fleurs",
		City:       "Lyon",
		State:      "ARA",
		PostalCode: "69001",
		Country:    "FR",
	}
}

func validShippingForm() ShippingForm {
	return ShippingForm{
		Email:                "buyer@example.com",
		ShippingAddress:      fullAddress(),
		UseShippingAsBilling: true,
		ShippingMethodID:     "std",
	}
}

func TestValidateShippingHappyPath(t *testing.T) {
	errs := ValidateShipping(validShippingForm())
	if !errs.Valid() {
		t.Fatalf("expected valid form, got %v", errs)
	}
}

func TestValidateShippingEmailAlwaysRequired(t *testing.T) {
	form := validShippingForm()
	form.SavedShippingID = "addr-1"
	form.Email = ""

	errs := ValidateShipping(form)
	if errs["email"] != "is required" {
		t.Fatalf("expected email required, got %v", errs)
	}

	form.Email = "not-an-email"
	errs = ValidateShipping(form)
	if errs["email"] == "" {
		t.Fatalf("expected email format error, got %v", errs)
	}
}

func TestValidateShippingSavedAddressExemptsDraftFields(t *testing.T) {
	form := ShippingForm{
		Email:                "buyer@example.com",
		SavedShippingID:      "addr-1",
		UseShippingAsBilling: true,
		ShippingMethodID:     "std",
	}

	errs := ValidateShipping(form)
	if !errs.Valid() {
		t.Fatalf("saved address should exempt draft fields, got %v", errs)
	}
}

func TestValidateShippingDraftFieldsRequiredWithoutSavedAddress(t *testing.T) {
	form := validShippingForm()
	form.ShippingAddress = AddressFields{}

	errs := ValidateShipping(form)
	for _, field := range []string{"first_name", "last_name", "line1", "city", "state", "postal_code", "country"} {
		if errs["shipping_address."+field] != "is required" {
			t.Fatalf("expected %s required, got %v", field, errs)
		}
	}
}

func TestValidateShippingBillingRequiredOnlyWhenSeparate(t *testing.T) {
	form := validShippingForm()
	form.UseShippingAsBilling = false

	errs := ValidateShipping(form)
	if errs["billing_address.line1"] != "is required" {
		t.Fatalf("expected billing fields required, got %v", errs)
	}

	form.SavedBillingID = "addr-2"
	errs = ValidateShipping(form)
	if !errs.Valid() {
		t.Fatalf("saved billing address should exempt billing fields, got %v", errs)
	}
}

func TestValidateShippingMethodAlwaysRequired(t *testing.T) {
	form := validShippingForm()
	form.ShippingMethodID = ""

	errs := ValidateShipping(form)
	if errs["shipping_method_id"] != "is required" {
		t.Fatalf("expected shipping method required, got %v", errs)
	}
}

func TestValidateShippingGiftMessageLength(t *testing.T) {
	form := validShippingForm()
	form.Gift.GiftMessage = strings.Repeat("x", 201)

	errs := ValidateShipping(form)
	if errs["gift_options.gift_message"] == "" {
		t.Fatalf("expected gift message length error, got %v", errs)
	}

	form.Gift.GiftMessage = strings.Repeat("x", 200)
	if errs := ValidateShipping(form); !errs.Valid() {
		t.Fatalf("200 characters should be allowed, got %v", errs)
	}
}

func TestValidatePaymentCardFields(t *testing.T) {
	form := PaymentForm{PaymentType: PaymentTypeCard, AcceptTerms: true}

	errs := ValidatePayment(form)
	for _, field := range []string{"card.number", "card.expiry_month", "card.expiry_year", "card.cvv", "card.holder_name"} {
		if errs[field] == "" {
			t.Fatalf("expected %s error, got %v", field, errs)
		}
	}

	form.Card = CardFields{
		Number:      "4242 4242 4242 4242",
		ExpiryMonth: "12",
		ExpiryYear:  "2027",
		CVV:         "123",
		HolderName:  "Ada Laurent",
	}
	if errs := ValidatePayment(form); !errs.Valid() {
		t.Fatalf("expected valid card payment, got %v", errs)
	}
}

func TestValidatePaymentCardShapeChecks(t *testing.T) {
	form := PaymentForm{
		PaymentType: PaymentTypeCard,
		AcceptTerms: true,
		Card: CardFields{
			Number:      "42",
			ExpiryMonth: "13",
			ExpiryYear:  "27",
			CVV:         "12345",
			HolderName:  "Ada",
		},
	}

	errs := ValidatePayment(form)
	if errs["card.number"] == "" || errs["card.expiry_month"] == "" || errs["card.expiry_year"] == "" || errs["card.cvv"] == "" {
		t.Fatalf("expected shape errors, got %v", errs)
	}
}

func TestValidatePaymentTermsAlwaysRequired(t *testing.T) {
	form := PaymentForm{PaymentType: "stored", PaymentMethodID: "pm-1"}

	errs := ValidatePayment(form)
	if errs["accept_terms"] != "must be accepted" {
		t.Fatalf("expected terms error, got %v", errs)
	}
	if _, present := errs["card.number"]; present {
		t.Fatal("non-card payment must not require card fields")
	}
}

func TestClearOnEditDropsSingleField(t *testing.T) {
	form := validShippingForm()
	form.Email = ""
	form.ShippingMethodID = ""

	errs := ValidateShipping(form)
	if len(errs) != 2 {
		t.Fatalf("expected two errors, got %v", errs)
	}

	errs.Clear("email")
	if _, present := errs["email"]; present {
		t.Fatal("cleared field error should be gone")
	}
	if errs["shipping_method_id"] == "" {
		t.Fatal("other field errors must survive a clear")
	}
}
