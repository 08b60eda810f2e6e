package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
	"github.com/maisonessence/storefront-checkout/pkg/redis"
)

type keyValue interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// Store keeps the storefront's synced cart in Redis, keyed by checkout
// session. The web tier pushes every cart change through Put so checkout
// always prices against the current cart.
type Store struct {
	kv  keyValue
	ttl time.Duration
}

// NewStore builds the cart store.
func NewStore(kv keyValue, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, errors.New("key-value client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{kv: kv, ttl: ttl}, nil
}

// Put replaces the cart for the given session.
func (s *Store) Put(ctx context.Context, sessionID string, c Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal cart")
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(sessionID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store cart")
	}
	return nil
}

// Get returns the cart for the given session. A session with no synced cart
// reads as an empty cart, which the state machine treats as a forced exit.
func (s *Store) Get(ctx context.Context, sessionID string) (Cart, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return Cart{}, nil
		}
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unmarshal cart")
	}
	return c, nil
}

// Delete removes the cart after a successful order submission.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}
