package cache

import (
	"context"
	"testing"
	"time"
)

func TestLocalCache(t *testing.T) {
	config := LocalConfig{
		MaxSize:           100,
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	}

	cache := NewLocalCache(config)
	defer cache.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		key := "alert:ALR-1001"
		value := "pending"

		if err := cache.Set(ctx, key, value, time.Minute); err != nil {
			t.Errorf("Failed to set cache: %v", err)
		}

		if retrieved, exists := cache.Get(ctx, key); !exists {
			t.Error("Cache value not found")
		} else if retrieved != value {
			t.Errorf("Expected %v, got %v", value, retrieved)
		}
	})

	t.Run("Expired entry is gone", func(t *testing.T) {
		key := "alert:ALR-expired"
		if err := cache.Set(ctx, key, "acknowledged", time.Millisecond); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
		if _, exists := cache.Get(ctx, key); exists {
			t.Error("Expected expired entry to be evicted on read")
		}
	})

	t.Run("Delete and Exists", func(t *testing.T) {
		key := "alert:ALR-1002"
		if err := cache.Set(ctx, key, "resolved", time.Minute); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
		if !cache.Exists(ctx, key) {
			t.Error("Expected key to exist")
		}
		if err := cache.Delete(ctx, key); err != nil {
			t.Errorf("Failed to delete cache: %v", err)
		}
		if cache.Exists(ctx, key) {
			t.Error("Expected key to be deleted")
		}
	})

	t.Run("GetMulti returns only present keys", func(t *testing.T) {
		if err := cache.SetMulti(ctx, map[string]interface{}{
			"alert:ALR-a": "medical",
			"alert:ALR-b": "fire",
		}, time.Minute); err != nil {
			t.Fatalf("Failed to set multi: %v", err)
		}
		got := cache.GetMulti(ctx, "alert:ALR-a", "alert:ALR-b", "alert:ALR-missing")
		if len(got) != 2 {
			t.Errorf("Expected 2 entries, got %d", len(got))
		}
		if got["alert:ALR-a"] != "medical" {
			t.Errorf("Expected medical, got %v", got["alert:ALR-a"])
		}
	})

	t.Run("Increment", func(t *testing.T) {
		key := "dispatch:attempts"
		n, err := cache.Increment(ctx, key, 1)
		if err != nil || n != 1 {
			t.Errorf("Expected 1, got %d (err=%v)", n, err)
		}
		n, err = cache.Increment(ctx, key, 2)
		if err != nil || n != 3 {
			t.Errorf("Expected 3, got %d (err=%v)", n, err)
		}
	})

	t.Run("GetWithTTL", func(t *testing.T) {
		key := "alert:ALR-ttl"
		if err := cache.Set(ctx, key, "pending", time.Minute); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
		_, ttl, exists := cache.GetWithTTL(ctx, key)
		if !exists {
			t.Fatal("Expected key to exist")
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Errorf("Unexpected TTL: %v", ttl)
		}
	})
}

func TestGoCache(t *testing.T) {
	cache := NewGoCache(LocalConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})
	defer cache.Close()

	ctx := context.Background()

	if err := cache.Set(ctx, "alert:ALR-2001", "police", time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}
	if v, exists := cache.Get(ctx, "alert:ALR-2001"); !exists || v != "police" {
		t.Errorf("Expected police, got %v (exists=%v)", v, exists)
	}

	n, err := cache.Increment(ctx, "notify:count", 5)
	if err != nil || n != 5 {
		t.Errorf("Expected 5, got %d (err=%v)", n, err)
	}
	n, err = cache.Decrement(ctx, "notify:count", 2)
	if err != nil || n != 3 {
		t.Errorf("Expected 3, got %d (err=%v)", n, err)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Errorf("Failed to clear cache: %v", err)
	}
	if cache.Exists(ctx, "alert:ALR-2001") {
		t.Error("Expected cache to be empty after clear")
	}
}

func TestNewCacheFactory(t *testing.T) {
	c, err := NewCache(Config{Type: "local", Local: LocalConfig{MaxSize: 10}})
	if err != nil {
		t.Fatalf("Failed to create local cache: %v", err)
	}
	c.Close()

	if _, err := NewCache(Config{Type: "memcached"}); err == nil {
		t.Error("Expected error for unsupported cache type")
	}
}
