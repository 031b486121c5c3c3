package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/maison-storefront/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestIncrWithTTLCreatesKeyWithExpiry(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i := 1; i <= 3; i++ {
		count, err := client.IncrWithTTL(ctx, "window", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != int64(i) {
			t.Fatalf("expected counter %d got %d", i, count)
		}
	}
	if mock.ttls["window"] != time.Minute {
		t.Fatalf("expected ttl to be set with the key, got %s", mock.ttls["window"])
	}
	if len(mock.expireCalls) != 0 {
		t.Fatalf("expected no separate expire calls, got %d", len(mock.expireCalls))
	}
}

func TestIncrWithTTLDoesNotCountWhenKeyCreationFails(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.setNXErr = fmt.Errorf("connection reset")
	client := &Client{store: mock}

	if _, err := client.IncrWithTTL(ctx, "window", time.Minute); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := mock.incr["window"]; ok {
		t.Fatalf("counter must not exist without its ttl")
	}
}

func TestIncrWithTTLReappliesExpiryAfterWindowRace(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if _, err := client.IncrWithTTL(ctx, "window", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mock.expireBeforeIncr = true
	count, err := client.IncrWithTTL(ctx, "window", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a fresh window, got %d", count)
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].ttl != time.Minute {
		t.Fatalf("expected ttl to be reapplied, got %+v", mock.expireCalls)
	}
}

func TestNewToleratesUnreachableServer(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{
		Address:     "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		ReadTimeout: 100 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("expected client despite failed ping, got %v", err)
	}
	defer client.Close()
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to keep failing while the server is down")
	}
}

func TestCartSnapshotStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	store := NewCartSnapshotStore(&Client{store: mock}, time.Hour)

	if _, found, err := store.LoadSnapshot(ctx, "sess-1"); err != nil || found {
		t.Fatalf("expected missing snapshot, found=%v err=%v", found, err)
	}

	if err := store.SaveSnapshot(ctx, "sess-1", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.SaveSnapshot(ctx, "sess-1", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	raw, found, err := store.LoadSnapshot(ctx, "sess-1")
	if err != nil || !found {
		t.Fatalf("expected snapshot, found=%v err=%v", found, err)
	}
	if string(raw) != `{"v":2}` {
		t.Fatalf("expected last write to win, got %s", raw)
	}
	if mock.ttls["ms:cart:sess-1"] != time.Hour {
		t.Fatalf("expected snapshot ttl to be applied")
	}
}

func TestCartSnapshotStoreSurfacesErrors(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.getErr = fmt.Errorf("connection reset")
	store := NewCartSnapshotStore(&Client{store: mock}, 0)

	if _, _, err := store.LoadSnapshot(ctx, "sess-1"); err == nil {
		t.Fatalf("expected load error")
	}

	var nilStore *CartSnapshotStore
	if err := nilStore.SaveSnapshot(ctx, "sess-1", nil); err == nil {
		t.Fatalf("expected error from nil store")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.CartSnapshotKey("abc"); got != "ms:cart:abc" {
		t.Fatalf("unexpected cart key %s", got)
	}
	if got := client.RateLimitKey("newsletter", "ip", "1.2.3.4"); got != "ms:rate_limit:newsletter:ip:1.2.3.4" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.RateLimitKey("newsletter", "", "x"); got != "ms:rate_limit:newsletter:x" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://localhost:6379/2",
		PoolSize:    7,
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close should be a no-op, got %v", err)
	}
}

type mockCmdable struct {
	data        map[string]string
	ttls        map[string]time.Duration
	incr        map[string]int64
	expireCalls []expireCall
	getErr      error
	setNXErr    error

	expireBeforeIncr bool
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if m.setNXErr != nil {
		return redis.NewBoolResult(false, m.setNXErr)
	}
	if _, ok := m.incr[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.incr[key] = 0
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	if m.expireBeforeIncr {
		delete(m.incr, key)
		delete(m.ttls, key)
		m.expireBeforeIncr = false
	}
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
