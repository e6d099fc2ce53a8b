package memory

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGetAndExpiry(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Expected hit with v, got %q ok=%v err=%v", got, ok, err)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Expected miss after ttl elapsed")
	}

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Error("Expected miss for unknown key")
	}
}

func TestCache_NoExpiry(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Error("Expected hit for entry without ttl")
	}
}
