package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := NewLRU[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("get = %q, %v", got, ok)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // touch a so b becomes the eviction candidate
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should have survived")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)
	c.Set("k", 1)
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d, want 1", c.Size())
	}
}

func TestVersionsInvalidate(t *testing.T) {
	v := NewVersions()
	c := NewLRU[string](10, time.Minute)

	key := v.Key(7, "monthly:2024-01")
	c.Set(key, "cached")

	if _, ok := c.Get(v.Key(7, "monthly:2024-01")); !ok {
		t.Fatal("expected hit before bump")
	}

	v.Bump(7)
	if _, ok := c.Get(v.Key(7, "monthly:2024-01")); ok {
		t.Fatal("expected miss after bump")
	}

	// other users keep their entries
	other := v.Key(8, "monthly:2024-01")
	c.Set(other, "cached")
	v.Bump(7)
	if _, ok := c.Get(other); !ok {
		t.Fatal("bump must not touch other users")
	}
}

func TestVersionKeysDiffer(t *testing.T) {
	v := NewVersions()
	k1 := v.Key(1, "x")
	v.Bump(1)
	k2 := v.Key(1, "x")
	if k1 == k2 {
		t.Fatalf("keys identical across versions: %q", k1)
	}
}
