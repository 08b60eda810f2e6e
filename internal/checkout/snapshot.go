package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
	"github.com/maisonessence/storefront-checkout/pkg/redis"
)

// SnapshotStore persists the draft on every forward transition so an
// interrupted session can resume.
type SnapshotStore interface {
	Save(ctx context.Context, draft Draft) error
	Load(ctx context.Context, sessionID string) (Draft, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type snapshotKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SnapshotKey(sessionID string) string
}

// RedisSnapshotStore keeps draft snapshots in Redis with a TTL, keyed by
// session.
type RedisSnapshotStore struct {
	kv  snapshotKV
	ttl time.Duration
}

// NewRedisSnapshotStore builds the store.
func NewRedisSnapshotStore(kv snapshotKV, ttl time.Duration) (*RedisSnapshotStore, error) {
	if kv == nil {
		return nil, errors.New("key-value client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSnapshotStore{kv: kv, ttl: ttl}, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, draft Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal draft snapshot")
	}
	if err := s.kv.Set(ctx, s.kv.SnapshotKey(draft.SessionID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store draft snapshot")
	}
	return nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context, sessionID string) (Draft, bool, error) {
	raw, err := s.kv.Get(ctx, s.kv.SnapshotKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return Draft{}, false, nil
		}
		return Draft{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft snapshot")
	}

	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return Draft{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unmarshal draft snapshot")
	}
	return draft, true, nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.kv.Del(ctx, s.kv.SnapshotKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete draft snapshot")
	}
	return nil
}
