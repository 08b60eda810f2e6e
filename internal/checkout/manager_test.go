package checkout

import (
	"context"
	"testing"

	"github.com/maisonessence/storefront-checkout/internal/cart"
	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
)

func TestOpenRejectsEmptyCart(t *testing.T) {
	h := newHarness(t)
	mgr, err := NewManager(h.deps, h.carts)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	_, err = mgr.Open(context.Background(), OpenRequest{Cart: cart.Cart{}})
	if codeOf(t, err) != pkgerrors.CodeCartEmpty {
		t.Fatalf("expected cart-empty code, got %v", err)
	}
}

func TestOpenPersistsCartAndSnapshot(t *testing.T) {
	h := newHarness(t)
	mgr, err := NewManager(h.deps, h.carts)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	sess, err := mgr.Open(context.Background(), OpenRequest{UserID: "user-1", Cart: testCart()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if stored := h.carts.carts[sess.ID()]; stored.IsEmpty() {
		t.Fatalf("expected cart persisted under the session id")
	}
	if _, ok := h.snapshots.saved[sess.ID()]; !ok {
		t.Fatalf("expected initial draft snapshot")
	}

	got, err := mgr.Get(context.Background(), sess.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != sess {
		t.Fatalf("expected the in-memory session instance back")
	}
}

func TestGetUnknownSession(t *testing.T) {
	h := newHarness(t)
	mgr, err := NewManager(h.deps, h.carts)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	_, err = mgr.Get(context.Background(), "missing")
	if codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found code, got %v", err)
	}
}

func TestGetRehydratesFromSnapshot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mgr, err := NewManager(h.deps, h.carts)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	sess, err := mgr.Open(ctx, OpenRequest{UserID: "user-1", Cart: testCart()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := sess.SubmitShipping(ctx, "token", validShippingForm()); err != nil {
		t.Fatalf("SubmitShipping: %v", err)
	}

	// A restarted process shares the snapshot store but not the memory map.
	restarted, err := NewManager(h.deps, h.carts)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	revived, err := restarted.Get(ctx, sess.ID())
	if err != nil {
		t.Fatalf("Get after restart: %v", err)
	}

	state := revived.State()
	if state.Step != StepPayment {
		t.Fatalf("rehydrated session must resume at payment, got %s", state.Step)
	}
	if state.Draft.ShippingAddressID == "" {
		t.Fatalf("rehydrated draft must keep resolved address ids")
	}
	if state.Draft.CustomerEmail != "claire@example.com" {
		t.Fatalf("rehydrated draft lost the customer email")
	}
}

func TestSyncCartEmptyTearsDownSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mgr, err := NewManager(h.deps, h.carts)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	sess, err := mgr.Open(ctx, OpenRequest{Cart: testCart()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := mgr.SyncCart(ctx, sess.ID(), cart.Cart{}); err != nil {
		t.Fatalf("SyncCart: %v", err)
	}
	if err := sess.SubmitShipping(ctx, "token", validShippingForm()); codeOf(t, err) != pkgerrors.CodeStepBlocked {
		t.Fatalf("emptied cart must close the session, got %v", err)
	}
	if _, err := mgr.Get(ctx, sess.ID()); codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("closed session must not be served, got %v", err)
	}
}

func TestAbandonClosesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mgr, err := NewManager(h.deps, h.carts)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	sess, err := mgr.Open(ctx, OpenRequest{Cart: testCart()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	mgr.Abandon(ctx, sess.ID())
	if _, ok := h.snapshots.saved[sess.ID()]; ok {
		t.Fatalf("abandoning must discard the draft snapshot")
	}
	if _, err := mgr.Get(ctx, sess.ID()); codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("abandoned session must not be served, got %v", err)
	}
}
