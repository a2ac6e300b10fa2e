package session

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "terminal-1")
	ctx := context.Background()

	if _, err := store.Get(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	pair := TokenPair{AccessToken: "acc", RefreshToken: "ref", ExpiresIn: 900}
	if err := store.Set(ctx, pair); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != pair {
		t.Fatalf("unexpected pair: %+v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
}

func TestRedisStoresAreNamespaced(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	a := NewRedisStore(client, "terminal-a")
	b := NewRedisStore(client, "terminal-b")

	if err := a.Set(ctx, TokenPair{AccessToken: "a"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := b.Get(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for other terminal, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	if err := store.Set(ctx, TokenPair{AccessToken: "acc"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx)
	if err != nil || got.AccessToken != "acc" {
		t.Fatalf("get: %+v %v", got, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
}
