package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig Redis连接配置
type RedisConfig struct {
	Addr         string `json:"addr"`
	Password     string `json:"password"`
	DB           int    `json:"db"`
	DialTimeout  string `json:"dial_timeout"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
}

// NewRedisClient creates a Redis client from config.
func NewRedisClient(c *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  parseDuration(c.DialTimeout, 5*time.Second),
		ReadTimeout:  parseDuration(c.ReadTimeout, 3*time.Second),
		WriteTimeout: parseDuration(c.WriteTimeout, 3*time.Second),
	})
}

// RedisCache is a Redis-based cache implementation.
type RedisCache struct {
	client  *redis.Client
	options *CacheOptions
}

// NewRedisCache creates a new Redis cache.
func NewRedisCache(client *redis.Client, opts *CacheOptions) *RedisCache {
	if opts == nil {
		opts = &CacheOptions{}
	}
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = 5 * time.Minute
	}
	if opts.Serializer == nil {
		opts.Serializer = &JSONSerializer{}
	}

	return &RedisCache{
		client:  client,
		options: opts,
	}
}

// makeKey 生成带前缀的键
func (c *RedisCache) makeKey(key string) string {
	if c.options.KeyPrefix != "" {
		return fmt.Sprintf("%s:%s", c.options.KeyPrefix, key)
	}
	return key
}

// GetObject 获取对象（自动反序列化）
func (c *RedisCache) GetObject(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.makeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}

	return c.options.Serializer.Deserialize(data, dest)
}

// SetObject 设置对象（自动序列化）
func (c *RedisCache) SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := c.options.Serializer.Serialize(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = c.options.DefaultTTL
	}

	return c.client.Set(ctx, c.makeKey(key), data, ttl).Err()
}

// Delete deletes keys from cache.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.makeKey(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// JSONSerializer JSON序列化器
type JSONSerializer struct{}

// Serialize 序列化
func (s *JSONSerializer) Serialize(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Deserialize 反序列化
func (s *JSONSerializer) Deserialize(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
