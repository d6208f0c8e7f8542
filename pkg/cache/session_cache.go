package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionCache 会话上下文的Redis缓存
//
// 登录时写入，请求期间只读，指派/角色变更时删除。
// 缓存不可用不影响正确性：调用方必须回退到数据库重建。
type SessionCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewSessionCache 创建会话缓存实例
func NewSessionCache(config *Config) *SessionCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "eims:session"
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &SessionCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// NewSessionCacheWithClient 使用已有客户端创建缓存（测试用）
func NewSessionCacheWithClient(client *redis.Client, prefix string, ttl time.Duration) *SessionCache {
	return &SessionCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Close 关闭Redis连接
func (c *SessionCache) Close() error {
	return c.client.Close()
}

// Ping 测试Redis连接
func (c *SessionCache) Ping() error {
	ctx := context.Background()
	return c.client.Ping(ctx).Err()
}

func (c *SessionCache) key(userID uint) string {
	return fmt.Sprintf("%s:%d", c.prefix, userID)
}

// Set 写入会话上下文
func (c *SessionCache) Set(ctx context.Context, userID uint, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("序列化会话上下文失败: %v", err)
	}
	return c.client.Set(ctx, c.key(userID), data, c.ttl).Err()
}

// Get 读取会话上下文，未命中返回 redis.Nil
func (c *SessionCache) Get(ctx context.Context, userID uint, dest interface{}) error {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除会话上下文（登出或指派变更时调用）
func (c *SessionCache) Delete(ctx context.Context, userID uint) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

// IsMiss 判断是否为缓存未命中
func IsMiss(err error) bool {
	return err == redis.Nil
}
