package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartSnapshotStore keeps one serialized cart snapshot per session. A single
// SET replaces the whole value, so readers never observe a half-written key.
type CartSnapshotStore struct {
	client *Client
	ttl    time.Duration
}

// NewCartSnapshotStore binds the snapshot store to a client; ttl <= 0 keeps snapshots forever.
func NewCartSnapshotStore(client *Client, ttl time.Duration) *CartSnapshotStore {
	return &CartSnapshotStore{client: client, ttl: ttl}
}

// LoadSnapshot returns the raw snapshot, reporting found=false when none exists.
func (s *CartSnapshotStore) LoadSnapshot(ctx context.Context, sessionID string) ([]byte, bool, error) {
	if s == nil || s.client == nil {
		return nil, false, errors.New("cart snapshot store not initialized")
	}
	raw, err := s.client.Get(ctx, s.client.CartSnapshotKey(sessionID))
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(raw), true, nil
}

// SaveSnapshot overwrites the session snapshot (last write wins) and refreshes its TTL.
func (s *CartSnapshotStore) SaveSnapshot(ctx context.Context, sessionID string, payload []byte) error {
	if s == nil || s.client == nil {
		return errors.New("cart snapshot store not initialized")
	}
	return s.client.Set(ctx, s.client.CartSnapshotKey(sessionID), payload, s.ttl)
}
