package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/maisonessence/storefront-checkout/internal/pricing"
	"github.com/maisonessence/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
	"github.com/maisonessence/storefront-checkout/pkg/metrics"
)

type orderAPI interface {
	CreateOrder(ctx context.Context, token string, req commerce.CreateOrderRequest) (commerce.Order, error)
}

// SubmitLock extends the single-flight guarantee across replicas. A
// session's lock key is claimed before the order call and released after
// it; the TTL covers a replica that dies mid-call.
type SubmitLock interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SubmitLockKey(sessionID string) string
}

const submitLockTTL = 2 * time.Minute

// Submitter performs the single order-creation call per checkout attempt.
// The per-session in-flight set is the structural single-flight guarantee:
// two concurrent submissions for the same session cannot both reach the
// backend. With a SubmitLock, the guarantee holds across replicas too.
type Submitter struct {
	api      orderAPI
	currency string
	metrics  *metrics.CheckoutMetrics
	lock     SubmitLock

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewSubmitter builds the submitter. lock may be nil for single-replica
// deployments.
func NewSubmitter(api orderAPI, currency string, m *metrics.CheckoutMetrics, lock SubmitLock) (*Submitter, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order api required")
	}
	if currency == "" {
		currency = "USD"
	}
	return &Submitter{
		api:      api,
		currency: currency,
		metrics:  m,
		lock:     lock,
		inFlight: make(map[string]struct{}),
	}, nil
}

// InFlight reports whether a submission for the session is in progress.
func (s *Submitter) InFlight(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[sessionID]
	return busy
}

// Submit posts the order assembled from the resolved draft and the freshly
// recomputed pricing snapshot. On failure the in-flight flag clears so the
// shopper may retry; the resolved address ids live on the draft and are not
// re-created on retry.
func (s *Submitter) Submit(ctx context.Context, token string, draft Draft, quote pricing.Quote) (commerce.Order, error) {
	acquired, err := s.begin(ctx, draft.SessionID)
	if err != nil {
		return commerce.Order{}, err
	}
	if !acquired {
		return commerce.Order{}, pkgerrors.New(pkgerrors.CodeConflict, "order submission already in progress")
	}
	defer s.end(ctx, draft.SessionID)

	if !draft.Resolution.Complete() {
		return commerce.Order{}, pkgerrors.New(pkgerrors.CodeStepBlocked, "order requires resolved shipping and billing addresses")
	}
	if draft.CustomerEmail == "" {
		return commerce.Order{}, pkgerrors.New(pkgerrors.CodeStepBlocked, "order requires a customer email")
	}

	req := commerce.CreateOrderRequest{
		UserID:              draft.UserID,
		Subtotal:            quote.Subtotal,
		TaxAmount:           quote.Tax,
		ShippingCost:        quote.ShippingCost,
		DiscountAmount:      quote.Discount,
		TotalAmount:         quote.Total,
		Currency:            s.currency,
		ShippingAddressID:   draft.ShippingAddressID,
		BillingAddressID:    draft.BillingAddressID,
		ShippingMethodID:    draft.ShippingMethodID,
		PaymentMethodID:     draft.PaymentMethodID,
		GiftMessage:         draft.Gift.GiftMessage,
		SpecialInstructions: draft.SpecialInstructions,
		CustomerEmail:       draft.CustomerEmail,
		CustomerPhone:       draft.CustomerPhone,
	}

	start := time.Now()
	order, err := s.api.CreateOrder(ctx, token, req)
	s.metrics.ObserveSubmitDuration(time.Since(start))
	if err != nil {
		s.metrics.IncSubmission("error")
		return commerce.Order{}, err
	}
	s.metrics.IncSubmission("ok")
	return order, nil
}

func (s *Submitter) begin(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	if _, busy := s.inFlight[sessionID]; busy {
		s.mu.Unlock()
		return false, nil
	}
	s.inFlight[sessionID] = struct{}{}
	s.mu.Unlock()

	if s.lock == nil {
		return true, nil
	}
	acquired, err := s.lock.SetNX(ctx, s.lock.SubmitLockKey(sessionID), "1", submitLockTTL)
	if err != nil {
		s.release(sessionID)
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire submit lock")
	}
	if !acquired {
		s.release(sessionID)
		return false, nil
	}
	return true, nil
}

func (s *Submitter) end(ctx context.Context, sessionID string) {
	s.release(sessionID)
	if s.lock != nil {
		// Best effort; the TTL reclaims the key if the delete fails.
		_ = s.lock.Del(ctx, s.lock.SubmitLockKey(sessionID))
	}
}

func (s *Submitter) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}
