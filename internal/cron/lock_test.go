package cron

import (
	"context"
	"testing"
	"time"
)

type fakeRedisStore struct {
	setNXFn func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	getFn   func(ctx context.Context, key string) (string, error)
	delFn   func(ctx context.Context, keys ...string) error
}

func (f *fakeRedisStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return f.setNXFn(ctx, key, value, ttl)
}

func (f *fakeRedisStore) Get(ctx context.Context, key string) (string, error) {
	return f.getFn(ctx, key)
}

func (f *fakeRedisStore) Del(ctx context.Context, keys ...string) error {
	return f.delFn(ctx, keys...)
}

func TestRedisLock_AcquireAndRelease(t *testing.T) {
	var storedOwner string
	deleted := false
	store := &fakeRedisStore{
		setNXFn: func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
			storedOwner = value.(string)
			return true, nil
		},
		getFn: func(ctx context.Context, key string) (string, error) {
			return storedOwner, nil
		},
		delFn: func(ctx context.Context, keys ...string) error {
			deleted = true
			return nil
		},
	}

	lock, err := NewRedisLock(store, "cron:daily", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("Acquire = (%v, %v), want (true, nil)", ok, err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !deleted {
		t.Fatal("expected lock key to be deleted")
	}
}

func TestRedisLock_DoesNotReleaseForeignLock(t *testing.T) {
	store := &fakeRedisStore{
		setNXFn: func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
			return true, nil
		},
		getFn: func(ctx context.Context, key string) (string, error) {
			return "someone-else", nil
		},
		delFn: func(ctx context.Context, keys ...string) error {
			t.Fatal("must not delete a lock owned by another instance")
			return nil
		},
	}

	lock, err := NewRedisLock(store, "cron:daily", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	if _, err := lock.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestRedisLock_SkipsWhenHeld(t *testing.T) {
	store := &fakeRedisStore{
		setNXFn: func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
			return false, nil
		},
	}

	lock, err := NewRedisLock(store, "cron:daily", 0)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	ok, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if ok {
		t.Fatal("expected acquire to fail while lock is held")
	}
}
