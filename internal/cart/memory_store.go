package cart

import (
	"context"
	"sync"
)

// MemorySnapshotStore keeps snapshots in process memory, for dev and tests.
type MemorySnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string][]byte
}

// NewMemorySnapshotStore returns an empty store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snapshots: make(map[string][]byte)}
}

// LoadSnapshot returns a copy of the stored snapshot.
func (m *MemorySnapshotStore) LoadSnapshot(_ context.Context, sessionID string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.snapshots[sessionID]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

// SaveSnapshot replaces the stored snapshot.
func (m *MemorySnapshotStore) SaveSnapshot(_ context.Context, sessionID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[sessionID] = append([]byte(nil), payload...)
	return nil
}
