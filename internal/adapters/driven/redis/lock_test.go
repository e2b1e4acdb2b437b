package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestNewLock(t *testing.T) {
	client, _ := setupTestRedis(t)

	lock := NewLock(client)
	if lock.OwnerID() == "" {
		t.Error("expected non-empty owner ID")
	}
}

func TestLock_Acquire_AlreadyHeld(t *testing.T) {
	client, _ := setupTestRedis(t)
	lock1 := NewLock(client)
	lock2 := NewLock(client)
	ctx := context.Background()

	acquired, err := lock1.Acquire(ctx, "plagiarism:sub-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("expected first lock to acquire")
	}

	acquired, err = lock2.Acquire(ctx, "plagiarism:sub-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Error("expected second lock to fail")
	}

	// Same instance cannot re-acquire either
	acquired, _ = lock1.Acquire(ctx, "plagiarism:sub-1", 10*time.Second)
	if acquired {
		t.Error("expected reentrant acquire to fail")
	}
}

func TestLock_StoresPrefixedToken(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewLock(client)

	if _, err := lock.Acquire(context.Background(), "material:m-1", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, err := mr.Get("similarity:lock:material:m-1")
	if err != nil {
		t.Fatalf("expected lock key: %v", err)
	}
	if !strings.HasPrefix(value, lock.OwnerID()+":") {
		t.Errorf("expected token to start with owner id, got %q", value)
	}
	if ttl := mr.TTL("similarity:lock:material:m-1"); ttl != time.Minute {
		t.Errorf("expected 1m TTL, got %v", ttl)
	}
}

func TestLock_Release(t *testing.T) {
	client, _ := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	if acquired, _ := lock.Acquire(ctx, "test-lock", 10*time.Second); !acquired {
		t.Fatal("expected to acquire lock")
	}
	if err := lock.Release(ctx, "test-lock"); err != nil {
		t.Fatalf("unexpected error on release: %v", err)
	}

	acquired, err := lock.Acquire(ctx, "test-lock", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Error("expected to acquire lock after release")
	}
}

func TestLock_Release_NotHeld(t *testing.T) {
	client, _ := setupTestRedis(t)
	lock := NewLock(client)

	if err := lock.Release(context.Background(), "test-lock"); err != nil {
		t.Errorf("unexpected error releasing unheld lock: %v", err)
	}
}

func TestLock_Release_ByDifferentOwner(t *testing.T) {
	client, _ := setupTestRedis(t)
	lock1 := NewLock(client)
	lock2 := NewLock(client)
	ctx := context.Background()

	if acquired, _ := lock1.Acquire(ctx, "test-lock", 10*time.Second); !acquired {
		t.Fatal("expected to acquire lock")
	}

	if err := lock2.Release(ctx, "test-lock"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if acquired, _ := lock2.Acquire(ctx, "test-lock", 10*time.Second); acquired {
		t.Error("expected lock to still be held by lock1")
	}
}

func TestLock_Release_AfterTakeover(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock1 := NewLock(client)
	lock2 := NewLock(client)
	ctx := context.Background()

	if acquired, _ := lock1.Acquire(ctx, "test-lock", time.Second); !acquired {
		t.Fatal("expected to acquire lock")
	}
	mr.FastForward(2 * time.Second)

	if acquired, _ := lock2.Acquire(ctx, "test-lock", 10*time.Second); !acquired {
		t.Fatal("expected lock2 to take over expired lock")
	}

	// lock1's stale release must not free lock2's lock
	if err := lock1.Release(ctx, "test-lock"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists("similarity:lock:test-lock") {
		t.Error("expected lock2's lock to survive stale release")
	}
}

func TestLock_Extend(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	if acquired, _ := lock.Acquire(ctx, "test-lock", time.Second); !acquired {
		t.Fatal("expected to acquire lock")
	}

	if err := lock.Extend(ctx, "test-lock", 10*time.Second); err != nil {
		t.Fatalf("unexpected error on extend: %v", err)
	}
	if ttl := mr.TTL("similarity:lock:test-lock"); ttl != 10*time.Second {
		t.Errorf("expected 10s TTL after extend, got %v", ttl)
	}
}

func TestLock_Extend_NotHeld(t *testing.T) {
	client, _ := setupTestRedis(t)
	lock := NewLock(client)

	err := lock.Extend(context.Background(), "test-lock", 10*time.Second)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict when extending unheld lock, got %v", err)
	}
}

func TestLock_Extend_Expired(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	if acquired, _ := lock.Acquire(ctx, "test-lock", time.Second); !acquired {
		t.Fatal("expected to acquire lock")
	}
	mr.FastForward(2 * time.Second)

	err := lock.Extend(ctx, "test-lock", 10*time.Second)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict when extending expired lock, got %v", err)
	}
}

func TestLock_DifferentLockNames(t *testing.T) {
	client, _ := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	for _, name := range []string{"plagiarism:a", "plagiarism:b", "scheduler"} {
		acquired, err := lock.Acquire(ctx, name, 10*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !acquired {
			t.Errorf("expected to acquire %s", name)
		}
	}
}

func TestLock_Ping(t *testing.T) {
	client, _ := setupTestRedis(t)

	if err := NewLock(client).Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}
