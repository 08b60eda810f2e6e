package cart

import (
	"github.com/shopspring/decimal"
)

// Item is a storefront cart line. Unit prices are already net of any
// item-level sale price; checkout reads items and never mutates them.
type Item struct {
	ProductID      string          `json:"product_id"`
	SizeML         int             `json:"size_ml"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	GiftWrap       bool            `json:"gift_wrap"`
	SampleIncluded bool            `json:"sample_included"`
}

// Promotion is an applied discount code. Several may be active at once; the
// aggregate discount is the sum of their amounts.
type Promotion struct {
	PromotionCode  string          `json:"promotion_code"`
	Description    string          `json:"description"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// Cart is the storefront cart as synced by the web tier. Checkout treats it
// as read-only input.
type Cart struct {
	Items      []Item      `json:"items"`
	Promotions []Promotion `json:"promotions"`
}

// IsEmpty reports whether the cart holds no purchasable quantity. An empty
// cart forces an immediate exit from checkout.
func (c Cart) IsEmpty() bool {
	for _, item := range c.Items {
		if item.Quantity > 0 {
			return false
		}
	}
	return true
}

// Subtotal sums unit_price times quantity over all items. No rounding
// happens here; the pricing engine rounds once, at the tax step.
func (c Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}
