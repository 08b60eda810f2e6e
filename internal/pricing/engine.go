package pricing

import (
	"github.com/maisonessence/storefront-checkout/internal/cart"
	"github.com/maisonessence/storefront-checkout/pkg/commerce"
	"github.com/shopspring/decimal"
)

const currencyScale = 2

// Params carries the configurable rates the engine applies.
type Params struct {
	TaxRate     decimal.Decimal
	GiftWrapFee decimal.Decimal
}

// DefaultParams returns the store's standing rates: flat 7% tax on the
// discounted subtotal and a 5.00 gift-wrap fee.
func DefaultParams() Params {
	return Params{
		TaxRate:     decimal.New(7, -2),
		GiftWrapFee: decimal.New(5, 0),
	}
}

// Input is everything a quote depends on. Identical inputs always produce an
// identical quote; the engine performs no I/O.
type Input struct {
	Subtotal   decimal.Decimal
	Promotions []cart.Promotion
	Shipping   *commerce.ShippingMethod
	GiftWrap   bool
}

// Quote is a pricing snapshot computed at one instant. A snapshot is used
// for exactly one order submission and recomputed rather than reused.
type Quote struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Tax          decimal.Decimal `json:"tax"`
	GiftFee      decimal.Decimal `json:"gift_fee"`
	Total        decimal.Decimal `json:"total"`
}

// Engine computes order totals. It is a pure function of its inputs.
type Engine struct {
	params Params
}

// NewEngine builds a pricing engine with the given params. Zero rates are
// honored as configured, so a tax-free or no-gift-fee store prices
// correctly; DefaultParams supplies the standard storefront rates.
func NewEngine(params Params) Engine {
	return Engine{params: params}
}

// Compute derives the full pricing breakdown. Intermediate arithmetic stays
// unrounded; the only rounding happens at the tax step, so per-line rounding
// error cannot compound into the total.
func (e Engine) Compute(in Input) Quote {
	discount := decimal.Zero
	for _, promo := range in.Promotions {
		discount = discount.Add(promo.DiscountAmount)
	}

	shippingCost := decimal.Zero
	if in.Shipping != nil {
		shippingCost = in.Shipping.Cost
		if in.Shipping.FreeThreshold != nil && in.Subtotal.GreaterThanOrEqual(*in.Shipping.FreeThreshold) {
			shippingCost = decimal.Zero
		}
	}

	// Tax applies to the discounted subtotal, clamped so a discount larger
	// than the subtotal never produces negative tax.
	taxBase := in.Subtotal.Sub(discount)
	if taxBase.IsNegative() {
		taxBase = decimal.Zero
	}
	tax := taxBase.Mul(e.params.TaxRate).Round(currencyScale)

	giftFee := decimal.Zero
	if in.GiftWrap {
		giftFee = e.params.GiftWrapFee
	}

	total := in.Subtotal.Add(shippingCost).Add(tax).Sub(discount).Add(giftFee)

	return Quote{
		Subtotal:     in.Subtotal,
		Discount:     discount,
		ShippingCost: shippingCost,
		Tax:          tax,
		GiftFee:      giftFee,
		Total:        total,
	}
}

// QuoteCart is the common entry point: subtotal and promotions come straight
// from the synced cart.
func (e Engine) QuoteCart(c cart.Cart, shipping *commerce.ShippingMethod, giftWrap bool) Quote {
	return e.Compute(Input{
		Subtotal:   c.Subtotal(),
		Promotions: c.Promotions,
		Shipping:   shipping,
		GiftWrap:   giftWrap,
	})
}
