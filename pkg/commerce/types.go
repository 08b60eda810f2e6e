package commerce

import (
	"github.com/shopspring/decimal"
)

// ShippingMethod is a delivery option offered by the commerce backend. The
// wire format carries cost fields as numeric strings; the client parses them
// into fixed-point decimals before anything downstream sees them.
type ShippingMethod struct {
	ShippingMethodID string
	Name             string
	Cost             decimal.Decimal
	FreeThreshold    *decimal.Decimal
	EstimatedDaysMin int
	EstimatedDaysMax int
	IsExpress        bool
}

// CreateOrderRequest is the order-creation payload. Monetary fields marshal
// as numeric strings, matching what the backend emits for shipping methods.
type CreateOrderRequest struct {
	UserID              string          `json:"user_id,omitempty"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	ShippingCost        decimal.Decimal `json:"shipping_cost"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	Currency            string          `json:"currency"`
	ShippingAddressID   string          `json:"shipping_address_id"`
	BillingAddressID    string          `json:"billing_address_id"`
	ShippingMethodID    string          `json:"shipping_method_id"`
	PaymentMethodID     string          `json:"payment_method_id,omitempty"`
	GiftMessage         string          `json:"gift_message,omitempty"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	CustomerEmail       string          `json:"customer_email"`
	CustomerPhone       string          `json:"customer_phone,omitempty"`
}

// Order is the created order record echoed back by the backend.
type Order struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number,omitempty"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   string          `json:"created_at,omitempty"`
}
