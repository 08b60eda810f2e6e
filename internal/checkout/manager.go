package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/maisonessence/storefront-checkout/internal/cart"
	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
)

type cartWriter interface {
	Put(ctx context.Context, sessionID string, c cart.Cart) error
}

// Manager owns the live checkout sessions for this process. Sessions are
// kept in memory for their active lifetime; forward progress is persisted
// as draft snapshots so a restarted process can rehydrate a session on the
// next request.
type Manager struct {
	deps   Deps
	writer cartWriter

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager validates deps and returns a ready manager.
func NewManager(deps Deps, writer cartWriter) (*Manager, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if writer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart writer required")
	}
	return &Manager{
		deps:     deps,
		writer:   writer,
		sessions: make(map[string]*Session),
	}, nil
}

// OpenRequest starts a checkout attempt. UserID is empty for guests.
type OpenRequest struct {
	UserID string
	Cart   cart.Cart
}

// Open rejects empty carts up front, persists the cart under a fresh
// session id and returns the new session at the shipping step.
func (m *Manager) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	if req.Cart.IsEmpty() {
		return nil, errCartEmpty()
	}

	sessionID := uuid.NewString()
	if err := m.writer.Put(ctx, sessionID, req.Cart); err != nil {
		return nil, err
	}

	sess := newSession(m.deps, NewDraft(sessionID, req.UserID))
	sess.persistSnapshot(ctx)

	m.mu.Lock()
	m.sessions[sessionID] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get returns the live session, rehydrating it from its draft snapshot
// when the process no longer holds it in memory.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if ok {
		if sess.closed.Load() {
			m.evict(sessionID)
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return sess, nil
	}

	draft, found, err := m.deps.Snapshots.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have rehydrated it while we read the snapshot.
	if existing, ok := m.sessions[sessionID]; ok {
		return existing, nil
	}
	sess = newSession(m.deps, draft)
	m.sessions[sessionID] = sess
	return sess, nil
}

// SyncCart replaces the session's cart. Emptying the cart mid-flow tears
// the session down immediately rather than waiting for the next step.
func (m *Manager) SyncCart(ctx context.Context, sessionID string, c cart.Cart) error {
	if err := m.writer.Put(ctx, sessionID, c); err != nil {
		return err
	}
	if !c.IsEmpty() {
		return nil
	}

	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if ok {
		sess.Close(ctx)
		m.evict(sessionID)
	}
	return nil
}

// Abandon closes and forgets a session, e.g. when the shopper leaves
// checkout for the storefront.
func (m *Manager) Abandon(ctx context.Context, sessionID string) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if ok {
		sess.Close(ctx)
	}
	m.evict(sessionID)
}

func (m *Manager) evict(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}
