package main

import (
	"context"
	"os"
	"testing"

	"vhours/internal/config"
)

// Runs against a real server when VHOURS_TEST_REDIS_ADDR is set.
func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("VHOURS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VHOURS_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, config.Redis{Addr: addr, DB: 15})
	if err != nil {
		t.Fatalf("NewRedisStore error: %v", err)
	}
	defer store.Close()

	key := "test." + t.Name()
	t.Cleanup(func() { _ = store.Delete(context.Background(), key) })

	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, key, "7"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if value, ok, err := store.Get(ctx, key); err != nil || !ok || value != "7" {
		t.Fatalf("expected 7, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestOpenStateStore_UnknownBackend(t *testing.T) {
	if _, err := OpenStateStore(context.Background(), config.State{Backend: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
