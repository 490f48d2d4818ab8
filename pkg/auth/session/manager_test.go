package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
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
	return "sess:" + accessID
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerStartAndRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	sess, err := manager.Start(ctx, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	stored := store.data[store.AccessSessionKey(sess.AccessID)]
	if !strings.HasSuffix(stored, ":"+sess.RefreshToken) {
		t.Fatalf("expected stored refresh token, got %q", stored)
	}

	if _, err := manager.Rotate(ctx, sess.AccessID, userID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	next, err := manager.Rotate(ctx, sess.AccessID, userID, sess.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if next.AccessID == sess.AccessID {
		t.Fatal("expected a new access id")
	}
	if _, exists := store.data[store.AccessSessionKey(sess.AccessID)]; exists {
		t.Fatal("old access key left behind")
	}

	if _, err := manager.Rotate(ctx, sess.AccessID, userID, sess.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected reuse to fail, got %v", err)
	}
}

func TestManagerRotateRejectsOtherUser(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	sess, err := manager.Start(ctx, uuid.New())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := manager.Rotate(ctx, sess.AccessID, uuid.New(), sess.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token for foreign user, got %v", err)
	}
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	sess, err := manager.Start(ctx, uuid.New())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ok, err := manager.HasSession(ctx, sess.AccessID)
	if err != nil || !ok {
		t.Fatalf("expected live session, got %v %v", ok, err)
	}
	if err := manager.Revoke(ctx, sess.AccessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, sess.AccessID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, got %v %v", ok, err)
	}
	if _, err := manager.Start(ctx, uuid.Nil); err == nil {
		t.Fatal("expected error for nil user")
	}
}
