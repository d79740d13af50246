package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedis(rdb, DefaultRedisPrefix, ttl)
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisStoreContract(t *testing.T) {
	store, _, done := newRedisStoreTest(t, 0)
	defer done()
	storeContract(t, store)
}

func TestRedisStoreKeyLayoutAndTTL(t *testing.T) {
	store, mr, done := newRedisStoreTest(t, 30*time.Second)
	defer done()
	ctx := context.Background()
	id := mustID(t)

	if err := store.Create(ctx, id); err != nil {
		t.Fatalf("create: %v", err)
	}
	key := "jwt:" + id
	if !mr.Exists(key) {
		t.Fatalf("expected key %q", key)
	}
	if ttl := mr.TTL(key); ttl != 30*time.Second {
		t.Fatalf("expected ttl 30s, got %v", ttl)
	}

	mr.FastForward(31 * time.Second)
	ok, err := store.Exists(ctx, id)
	if err != nil || ok {
		t.Fatalf("expired key still exists: ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreDuplicateCreateKeepsOriginal(t *testing.T) {
	store, mr, done := newRedisStoreTest(t, time.Minute)
	defer done()
	ctx := context.Background()
	id := mustID(t)

	if err := store.Create(ctx, id); err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := mr.Get("jwt:" + id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	mr.FastForward(20 * time.Second)

	if err := store.Create(ctx, id); err != nil {
		t.Fatalf("second create: %v", err)
	}
	second, _ := mr.Get("jwt:" + id)
	if first != second {
		t.Fatalf("duplicate create rewrote value: %q -> %q", first, second)
	}
	if ttl := mr.TTL("jwt:" + id); ttl != 40*time.Second {
		t.Fatalf("duplicate create must not refresh ttl, got %v", ttl)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr, done := newRedisStoreTest(t, 0)
	defer done()
	mr.Close()

	ctx := context.Background()
	if _, err := store.Exists(ctx, mustID(t)); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from exists, got %v", err)
	}
	if err := store.Revoke(ctx, mustID(t)); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from revoke, got %v", err)
	}
	if err := store.Create(ctx, mustID(t)); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from create, got %v", err)
	}
}

func TestOpenRedisSelectsDatabase(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()

	store, err := Open(context.Background(), BackendRedis, Options{
		Redis: RedisOptions{URL: "redis://" + mr.Addr() + "/3", Prefix: "s:"},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.(*RedisStore).Close()

	id := mustID(t)
	if err := store.Create(context.Background(), id); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.DB(3).Exists("s:" + id) {
		t.Fatalf("expected key in db 3")
	}
}
