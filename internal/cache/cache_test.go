package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(func() time.Time { return now })

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatal("expected miss for unknown key")
	}

	c.Set(ctx, "bookings:user-1", []byte(`["bk-1"]`), time.Minute)
	value, ok := c.Get(ctx, "bookings:user-1")
	if !ok || !bytes.Equal(value, []byte(`["bk-1"]`)) {
		t.Fatalf("expected hit, got ok=%v value=%q", ok, value)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(func() time.Time { return now })

	c.Set(ctx, "key", []byte("value"), time.Minute)

	now = now.Add(59 * time.Second)
	if _, ok := c.Get(ctx, "key"); !ok {
		t.Fatal("entry expired early")
	}

	now = now.Add(time.Second)
	if _, ok := c.Get(ctx, "key"); ok {
		t.Fatal("entry should have expired at the ttl boundary")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry still resident, len=%d", c.Len())
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(nil)

	c.Set(ctx, "key", []byte("value"), time.Minute)
	c.Invalidate(ctx, "key")
	if _, ok := c.Get(ctx, "key"); ok {
		t.Fatal("invalidated entry still readable")
	}

	// Invalidating an absent key is a no-op.
	c.Invalidate(ctx, "missing")
}

func TestMemoryCacheSweepOnWrite(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(func() time.Time { return now })

	c.Set(ctx, "old-1", []byte("a"), time.Minute)
	c.Set(ctx, "old-2", []byte("b"), time.Minute)

	now = now.Add(2 * time.Minute)
	c.Set(ctx, "fresh", []byte("c"), time.Minute)

	if c.Len() != 1 {
		t.Fatalf("stale entries survived the sweep, len=%d", c.Len())
	}
}

func TestMemoryCacheZeroTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(nil)

	c.Set(ctx, "key", []byte("value"), 0)
	if _, ok := c.Get(ctx, "key"); ok {
		t.Fatal("zero ttl should not store anything")
	}
}
