package cache

import (
	"strings"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Expected v, got %q (found=%v)", val, found)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 item, got %d", c.Len())
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected entry to expire")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)

	_ = c.Delete("a")
	if _, found := c.Get("a"); found {
		t.Error("Expected a to be deleted")
	}
	if _, found := c.Get("b"); !found {
		t.Error("Expected b to survive deleting a")
	}
}

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("readme", "facebook/react")
	k2 := CacheKey("tree", "facebook/react")
	if k1 == k2 {
		t.Error("Expected different keys for different kinds")
	}
	if !strings.HasPrefix(k1, "slopscore:v1:readme:") {
		t.Errorf("Unexpected key prefix: %s", k1)
	}
	if CacheKey("readme", "facebook/react") != k1 {
		t.Error("Expected stable key")
	}
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	_ = c.Set("k", []byte("v"), time.Minute)
	if _, found := c.Get("k"); found {
		t.Error("Nop cache should never hit")
	}
}
