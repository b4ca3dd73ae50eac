package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// localCache 基于 LRU 的本地缓存实现
type localCache struct {
	config LocalConfig
	cache  *lru.Cache[string, *cacheItem]
	mu     sync.Mutex // 保护 Increment 的读-改-写
}

// cacheItem 缓存项
type cacheItem struct {
	value      interface{}
	expiration time.Time
}

func (i *cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	size := config.MaxSize
	if size <= 0 {
		size = 1024
	}
	c, _ := lru.New[string, *cacheItem](size)
	lc := &localCache{
		config: config,
		cache:  c,
	}

	// 启动清理协程
	go lc.startCleanup()

	return lc
}

// Get 获取缓存值
func (lc *localCache) Get(ctx context.Context, key string) (interface{}, bool) {
	item, exists := lc.cache.Get(key)
	if !exists {
		return nil, false
	}
	if item.expired(time.Now()) {
		lc.cache.Remove(key)
		return nil, false
	}
	return item.value, true
}

// Set 设置缓存值
func (lc *localCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var exp time.Time
	if expiration > 0 {
		exp = time.Now().Add(expiration)
	}
	lc.cache.Add(key, &cacheItem{value: value, expiration: exp})
	return nil
}

// Delete 删除缓存
func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.cache.Remove(key)
	return nil
}

// Exists 检查键是否存在
func (lc *localCache) Exists(ctx context.Context, key string) bool {
	item, exists := lc.cache.Peek(key)
	if !exists {
		return false
	}
	if item.expired(time.Now()) {
		lc.cache.Remove(key)
		return false
	}
	return true
}

// Clear 清空所有缓存
func (lc *localCache) Clear(ctx context.Context) error {
	lc.cache.Purge()
	return nil
}

// GetMulti 批量获取
func (lc *localCache) GetMulti(ctx context.Context, keys ...string) map[string]interface{} {
	result := make(map[string]interface{})
	for _, key := range keys {
		if value, exists := lc.Get(ctx, key); exists {
			result[key] = value
		}
	}
	return result
}

// SetMulti 批量设置
func (lc *localCache) SetMulti(ctx context.Context, data map[string]interface{}, expiration time.Duration) error {
	for key, value := range data {
		if err := lc.Set(ctx, key, value, expiration); err != nil {
			return err
		}
	}
	return nil
}

// DeleteMulti 批量删除
func (lc *localCache) DeleteMulti(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := lc.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Increment 自增
func (lc *localCache) Increment(ctx context.Context, key string, value int64) (int64, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	now := time.Now()
	item, exists := lc.cache.Get(key)
	if !exists || item.expired(now) {
		lc.cache.Add(key, &cacheItem{
			value:      value,
			expiration: now.Add(lc.config.DefaultExpiration),
		})
		return value, nil
	}

	// 尝试转换为数字并自增
	var newValue int64
	switch v := item.value.(type) {
	case int:
		newValue = int64(v) + value
	case int64:
		newValue = v + value
	case float64:
		newValue = int64(v) + value
	default:
		// 如果类型不支持，重置为指定值
		newValue = value
	}
	item.value = newValue
	return newValue, nil
}

// Decrement 自减
func (lc *localCache) Decrement(ctx context.Context, key string, value int64) (int64, error) {
	return lc.Increment(ctx, key, -value)
}

// GetWithTTL 获取值并返回剩余TTL
func (lc *localCache) GetWithTTL(ctx context.Context, key string) (interface{}, time.Duration, bool) {
	item, exists := lc.cache.Get(key)
	if !exists {
		return nil, 0, false
	}
	now := time.Now()
	if item.expired(now) {
		lc.cache.Remove(key)
		return nil, 0, false
	}

	var ttl time.Duration
	if !item.expiration.IsZero() {
		ttl = item.expiration.Sub(now)
		if ttl < 0 {
			ttl = 0
		}
	}
	return item.value, ttl, true
}

// Close 关闭缓存连接
func (lc *localCache) Close() error {
	// 本地缓存不需要关闭连接
	return nil
}

// startCleanup 启动清理协程
func (lc *localCache) startCleanup() {
	interval := lc.config.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		for _, key := range lc.cache.Keys() {
			if item, ok := lc.cache.Peek(key); ok && item.expired(now) {
				lc.cache.Remove(key)
			}
		}
	}
}
