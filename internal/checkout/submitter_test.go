package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maisonessence/storefront-checkout/internal/address"
	"github.com/maisonessence/storefront-checkout/internal/pricing"
	"github.com/maisonessence/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
)

type fakeSubmitLock struct {
	acquired bool
	setNXErr error

	setKeys []string
	delKeys []string
}

func (f *fakeSubmitLock) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	f.setKeys = append(f.setKeys, key)
	if f.setNXErr != nil {
		return false, f.setNXErr
	}
	return f.acquired, nil
}

func (f *fakeSubmitLock) Del(_ context.Context, keys ...string) error {
	f.delKeys = append(f.delKeys, keys...)
	return nil
}

func (f *fakeSubmitLock) SubmitLockKey(sessionID string) string {
	return "sf:checkout_submit:" + sessionID
}

func submittableDraft(sessionID string) Draft {
	return Draft{
		SessionID:     sessionID,
		CustomerEmail: "ada@example.com",
		Resolution: address.Resolution{
			ShippingAddressID: "addr-ship",
			BillingAddressID:  "addr-bill",
		},
		ShippingMethodID: "standard",
		PaymentMethodID:  "pm-1",
	}
}

func flatQuote(total string) pricing.Quote {
	return pricing.Quote{
		Subtotal: decimal.RequireFromString(total),
		Total:    decimal.RequireFromString(total),
	}
}

func TestSubmitReleasesReplicaLock(t *testing.T) {
	ctx := context.Background()
	lock := &fakeSubmitLock{acquired: true}
	orders := &fakeOrderAPI{order: commerce.Order{OrderID: "order-1"}}
	submitter, err := NewSubmitter(orders, "USD", nil, lock)
	if err != nil {
		t.Fatalf("NewSubmitter: %v", err)
	}

	if _, err := submitter.Submit(ctx, "token", submittableDraft("sess-1"), flatQuote("42.00")); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	wantKey := "sf:checkout_submit:sess-1"
	if len(lock.setKeys) != 1 || lock.setKeys[0] != wantKey {
		t.Fatalf("SetNX keys = %v, want [%s]", lock.setKeys, wantKey)
	}
	if len(lock.delKeys) != 1 || lock.delKeys[0] != wantKey {
		t.Fatalf("Del keys = %v, want [%s]", lock.delKeys, wantKey)
	}
	if submitter.InFlight("sess-1") {
		t.Fatal("session still marked in flight after submit")
	}
}

func TestSubmitReplicaLockDenied(t *testing.T) {
	ctx := context.Background()
	lock := &fakeSubmitLock{acquired: false}
	orders := &fakeOrderAPI{}
	submitter, err := NewSubmitter(orders, "USD", nil, lock)
	if err != nil {
		t.Fatalf("NewSubmitter: %v", err)
	}

	_, err = submitter.Submit(ctx, "token", submittableDraft("sess-2"), flatQuote("42.00"))
	if codeOf(t, err) != pkgerrors.CodeConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
	if len(orders.reqs) != 0 {
		t.Fatalf("order call went through despite a held lock: %v", orders.reqs)
	}
	if submitter.InFlight("sess-2") {
		t.Fatal("local in-flight flag not released after lock denial")
	}
}

func TestSubmitReplicaLockError(t *testing.T) {
	ctx := context.Background()
	lock := &fakeSubmitLock{setNXErr: errors.New("redis down")}
	orders := &fakeOrderAPI{}
	submitter, err := NewSubmitter(orders, "USD", nil, lock)
	if err != nil {
		t.Fatalf("NewSubmitter: %v", err)
	}

	_, err = submitter.Submit(ctx, "token", submittableDraft("sess-3"), flatQuote("42.00"))
	if codeOf(t, err) != pkgerrors.CodeDependency {
		t.Fatalf("err = %v, want dependency", err)
	}
	if len(orders.reqs) != 0 {
		t.Fatalf("order call went through despite a lock error: %v", orders.reqs)
	}
	if submitter.InFlight("sess-3") {
		t.Fatal("local in-flight flag not released after lock error")
	}
}
