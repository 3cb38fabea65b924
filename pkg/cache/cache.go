package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// ObjectCache 对象缓存接口
type ObjectCache interface {
	// GetObject 获取对象，未命中时返回 ErrCacheMiss
	GetObject(ctx context.Context, key string, dest interface{}) error

	// SetObject 设置对象，ttl 为0时使用默认过期时间
	SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete 删除缓存
	Delete(ctx context.Context, keys ...string) error

	// Ping 检查连接
	Ping(ctx context.Context) error

	// Close 关闭连接
	Close() error
}

// CacheOptions 缓存选项
type CacheOptions struct {
	// 默认过期时间
	DefaultTTL time.Duration

	// 键前缀
	KeyPrefix string

	// 序列化方式
	Serializer Serializer
}

// Serializer 序列化器接口
type Serializer interface {
	Serialize(v interface{}) ([]byte, error)
	Deserialize(data []byte, v interface{}) error
}
