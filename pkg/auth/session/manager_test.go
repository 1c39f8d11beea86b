package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerIssueAndRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	pair, err := manager.Issue(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if stored := store.data[store.AccessSessionKey(pair.AccessID)]; stored != pair.RefreshToken {
		t.Fatalf("expected stored token %q, got %q", pair.RefreshToken, stored)
	}

	if _, err := manager.Rotate(ctx, pair.AccessID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	next, err := manager.Rotate(ctx, pair.AccessID, pair.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, exists := store.data[store.AccessSessionKey(pair.AccessID)]; exists {
		t.Fatalf("old access key left behind")
	}
	if stored := store.data[store.AccessSessionKey(next.AccessID)]; stored != next.RefreshToken {
		t.Fatalf("expected new token stored, got %q", stored)
	}

	if _, err := manager.Rotate(ctx, pair.AccessID, pair.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected reused refresh token to fail, got %v", err)
	}
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	pair, err := manager.Issue(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ok, err := manager.HasSession(ctx, pair.AccessID)
	if err != nil || !ok {
		t.Fatalf("expected live session, got ok=%v err=%v", ok, err)
	}

	if err := manager.Revoke(ctx, pair.AccessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, pair.AccessID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, got ok=%v err=%v", ok, err)
	}

	if _, err := manager.HasSession(ctx, " "); err == nil {
		t.Fatal("expected blank access id to fail")
	}
}
