package cart

import (
	"context"
	"testing"
	"time"

	"github.com/maisonessence/storefront-checkout/pkg/redis"
	"github.com/shopspring/decimal"
)

func TestSubtotalSumsWithoutRounding(t *testing.T) {
	c := Cart{
		Items: []Item{
			{ProductID: "p1", Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")},
			{ProductID: "p2", Quantity: 1, UnitPrice: decimal.RequireFromString("45.50")},
		},
	}
	if got := c.Subtotal(); !got.Equal(decimal.RequireFromString("105.47")) {
		t.Fatalf("unexpected subtotal %s", got)
	}
}

func TestIsEmpty(t *testing.T) {
	if !(Cart{}).IsEmpty() {
		t.Fatal("nil items should read as empty")
	}
	if !(Cart{Items: []Item{{ProductID: "p1", Quantity: 0}}}).IsEmpty() {
		t.Fatal("zero-quantity items should read as empty")
	}
	if (Cart{Items: []Item{{ProductID: "p1", Quantity: 1}}}).IsEmpty() {
		t.Fatal("cart with quantity should not be empty")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(newFakeKV(), time.Hour)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	ctx := context.Background()

	in := Cart{
		Items: []Item{
			{ProductID: "p1", SizeML: 50, Quantity: 2, UnitPrice: decimal.RequireFromString("64.00"), GiftWrap: true},
		},
		Promotions: []Promotion{
			{PromotionCode: "WELCOME10", Description: "Welcome offer", DiscountAmount: decimal.NewFromInt(10)},
		},
	}
	if err := store.Put(ctx, "sess-1", in); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	out, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(out.Items) != 1 || !out.Items[0].UnitPrice.Equal(in.Items[0].UnitPrice) {
		t.Fatalf("cart did not round-trip: %+v", out)
	}
	if len(out.Promotions) != 1 || !out.Promotions[0].DiscountAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("promotions did not round-trip: %+v", out.Promotions)
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	gone, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if !gone.IsEmpty() {
		t.Fatal("deleted cart should read as empty")
	}
}

func TestStoreMissingCartReadsEmpty(t *testing.T) {
	store, _ := NewStore(newFakeKV(), time.Hour)
	c, err := store.Get(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !c.IsEmpty() {
		t.Fatal("missing cart should read as empty")
	}
}

type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return v, nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeKV) CartKey(sessionID string) string {
	return "sf:cart:" + sessionID
}
