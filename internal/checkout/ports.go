package checkout

import (
	"context"

	"github.com/maisonessence/storefront-checkout/internal/cart"
	"github.com/maisonessence/storefront-checkout/pkg/commerce"
	"github.com/maisonessence/storefront-checkout/pkg/logger"
	"github.com/shopspring/decimal"
)

// CartSource yields the storefront cart for a session. Checkout never
// mutates items or promotions through it.
type CartSource interface {
	Get(ctx context.Context, sessionID string) (cart.Cart, error)
	Delete(ctx context.Context, sessionID string) error
}

// ShippingMethodLister fetches the delivery options valid for a given order
// total.
type ShippingMethodLister interface {
	ListShippingMethods(ctx context.Context, orderTotal decimal.Decimal) ([]commerce.ShippingMethod, error)
}

// Notifier surfaces step-level failures to the shopper as dismissible
// notices. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, sessionID, message string)
}

type logNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier returns a Notifier that records notices in the service
// log; the storefront polls session state for the user-facing copy.
func NewLogNotifier(logg *logger.Logger) Notifier {
	return &logNotifier{logg: logg}
}

func (n *logNotifier) Notify(ctx context.Context, sessionID, message string) {
	if n.logg == nil {
		return
	}
	ctx = n.logg.WithSessionID(ctx, sessionID)
	n.logg.Warn(ctx, "checkout.notice: "+message)
}

// NoopNotifier discards notices.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, string) {}
