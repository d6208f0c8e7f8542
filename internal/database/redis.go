package database

import (
	"eims/pkg/cache"
	"eims/pkg/config"
	"sync"
	"time"
)

var (
	sessionCacheInstance *cache.SessionCache
	sessionCacheOnce     sync.Once
)

// GetSessionCache 获取会话缓存的单例实例
func GetSessionCache() *cache.SessionCache {
	sessionCacheOnce.Do(func() {
		cfg := config.GetConfig()
		ttl, err := time.ParseDuration(cfg.Session.TTL)
		if err != nil {
			ttl = 24 * time.Hour
		}
		sessionCacheInstance = cache.NewSessionCache(&cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      ttl,
		})
	})
	return sessionCacheInstance
}

// CloseSessionCache 关闭Redis连接
func CloseSessionCache() error {
	if sessionCacheInstance != nil {
		return sessionCacheInstance.Close()
	}
	return nil
}
