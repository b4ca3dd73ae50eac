package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// goCacheWrapper 基于 go-cache 的实现，带后台过期清理
type goCacheWrapper struct {
	cache *gocache.Cache
}

// NewGoCache 创建基于go-cache的本地缓存
func NewGoCache(config LocalConfig) Cache {
	return &goCacheWrapper{
		cache: gocache.New(config.DefaultExpiration, config.CleanupInterval),
	}
}

// Get 获取缓存值
func (gc *goCacheWrapper) Get(ctx context.Context, key string) (interface{}, bool) {
	return gc.cache.Get(key)
}

// Set 设置缓存值
func (gc *goCacheWrapper) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	gc.cache.Set(key, value, expiration)
	return nil
}

// Delete 删除缓存
func (gc *goCacheWrapper) Delete(ctx context.Context, key string) error {
	gc.cache.Delete(key)
	return nil
}

// Exists 检查键是否存在
func (gc *goCacheWrapper) Exists(ctx context.Context, key string) bool {
	_, found := gc.cache.Get(key)
	return found
}

// Clear 清空所有缓存
func (gc *goCacheWrapper) Clear(ctx context.Context) error {
	gc.cache.Flush()
	return nil
}

// GetMulti 批量获取
func (gc *goCacheWrapper) GetMulti(ctx context.Context, keys ...string) map[string]interface{} {
	result := make(map[string]interface{})
	for _, key := range keys {
		if value, found := gc.cache.Get(key); found {
			result[key] = value
		}
	}
	return result
}

// SetMulti 批量设置
func (gc *goCacheWrapper) SetMulti(ctx context.Context, data map[string]interface{}, expiration time.Duration) error {
	for key, value := range data {
		gc.cache.Set(key, value, expiration)
	}
	return nil
}

// DeleteMulti 批量删除
func (gc *goCacheWrapper) DeleteMulti(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		gc.cache.Delete(key)
	}
	return nil
}

// Increment 自增，键不存在时以 value 作为初始值
func (gc *goCacheWrapper) Increment(ctx context.Context, key string, value int64) (int64, error) {
	if newValue, err := gc.cache.IncrementInt64(key, value); err == nil {
		return newValue, nil
	}
	gc.cache.Set(key, value, gocache.DefaultExpiration)
	return value, nil
}

// Decrement 自减，键不存在时以 -value 作为初始值
func (gc *goCacheWrapper) Decrement(ctx context.Context, key string, value int64) (int64, error) {
	if newValue, err := gc.cache.DecrementInt64(key, value); err == nil {
		return newValue, nil
	}
	gc.cache.Set(key, -value, gocache.DefaultExpiration)
	return -value, nil
}

// GetWithTTL 获取值并返回剩余TTL，永不过期的键返回零TTL
func (gc *goCacheWrapper) GetWithTTL(ctx context.Context, key string) (interface{}, time.Duration, bool) {
	if value, expiration, found := gc.cache.GetWithExpiration(key); found {
		var ttl time.Duration
		if !expiration.IsZero() {
			ttl = time.Until(expiration)
			if ttl < 0 {
				ttl = 0
			}
		}
		return value, ttl, true
	}
	return nil, 0, false
}

// Close go-cache 无外部连接，直接返回
func (gc *goCacheWrapper) Close() error {
	return nil
}

// ItemCount 当前缓存项数量，监控面板使用
func (gc *goCacheWrapper) ItemCount() int {
	return gc.cache.ItemCount()
}
