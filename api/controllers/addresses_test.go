package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maisonessence/storefront-checkout/api/middleware"
	"github.com/maisonessence/storefront-checkout/pkg/types"
)

type stubAddressLister struct {
	token string
}

func (s *stubAddressLister) ListAddresses(_ context.Context, token string) ([]types.Address, error) {
	s.token = token
	return []types.Address{
		{AddressID: "addr-1", AddressType: types.AddressTypeShipping, FirstName: "Claire", LastName: "Fontaine"},
	}, nil
}

func TestListSavedAddressesRequiresAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/checkout/addresses", nil)
	ListSavedAddresses(&stubAddressLister{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for guests, got %d", rec.Code)
	}
}

func TestListSavedAddressesForwardsToken(t *testing.T) {
	lister := &stubAddressLister{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/checkout/addresses", nil)
	ctx := middleware.WithIdentity(req.Context(), middleware.Identity{UserID: "user-1", Token: "token-1"})
	ListSavedAddresses(lister, nil).ServeHTTP(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if lister.token != "token-1" {
		t.Fatalf("expected bearer token forwarded, got %q", lister.token)
	}

	var envelope struct {
		Data struct {
			Addresses []types.Address `json:"addresses"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Addresses) != 1 || envelope.Data.Addresses[0].AddressID != "addr-1" {
		t.Fatalf("unexpected addresses %+v", envelope.Data.Addresses)
	}
}
