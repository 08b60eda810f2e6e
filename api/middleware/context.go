package middleware

import "context"

type contextKey string

const ctxIdentity contextKey = "identity"

// Identity is the authenticated shopper attached to a request. Guests carry
// a zero Identity; checkout works either way, the token only unlocks saved
// addresses on the commerce backend.
type Identity struct {
	UserID string
	Email  string
	Token  string
}

// Authenticated reports whether the request carried a valid token.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// WithIdentity injects the shopper identity into the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}

// IdentityFromContext returns the request identity, zero for guests.
func IdentityFromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}
	if v, ok := ctx.Value(ctxIdentity).(Identity); ok {
		return v
	}
	return Identity{}
}
