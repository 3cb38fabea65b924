package main

import (
	"time"

	"datacuration/internal/infra/kafka"
	"datacuration/internal/server"
	"datacuration/pkg/cache"
	"datacuration/pkg/database"
	"datacuration/pkg/health"
	"datacuration/pkg/middleware"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const cacheKeyPrefix = "datasource"

// provideDatabaseConfig converts main Config to database.Config
func provideDatabaseConfig(c *Config) *database.Config {
	return &c.Data.Database
}

// provideHTTPConfig converts main Config to server.HTTPConfig
func provideHTTPConfig(c *Config) *server.HTTPConfig {
	return &c.Server.HTTP
}

// provideKafkaConfig converts main Config to kafka.Config
func provideKafkaConfig(c *Config) *kafka.Config {
	return &c.Event.Kafka
}

// newRedisClient 创建 Redis 客户端，未配置地址时返回 nil
func newRedisClient(c *Config, logger log.Logger) (*redis.Client, func()) {
	helper := log.NewHelper(log.With(logger, "module", "redis"))
	if c.Data.Redis.Addr == "" {
		helper.Warn("redis not configured, data source cache is disabled")
		return nil, func() {}
	}

	client := cache.NewRedisClient(&c.Data.Redis)
	return client, func() {
		helper.Info("closing redis client")
		if err := client.Close(); err != nil {
			helper.Errorf("failed to close redis client: %v", err)
		}
	}
}

// newObjectCache 创建对象缓存，redis 不可用或未配置 TTL 时返回 nil
func newObjectCache(c *Config, client *redis.Client) cache.ObjectCache {
	if client == nil || c.DataSource.CacheTTL == "" {
		return nil
	}
	ttl, err := time.ParseDuration(c.DataSource.CacheTTL)
	if err != nil || ttl <= 0 {
		return nil
	}
	return cache.NewRedisCache(client, &cache.CacheOptions{
		DefaultTTL: ttl,
		KeyPrefix:  cacheKeyPrefix,
	})
}

// newHealthChecker 注册数据库和 Redis 就绪检查
func newHealthChecker(c *Config, db *gorm.DB, client *redis.Client) *health.HealthChecker {
	timeout, err := time.ParseDuration(c.DataSource.ReadyTimeout)
	if err != nil {
		timeout = 3 * time.Second
	}

	checker := health.NewHealthChecker(timeout)
	checker.Register(health.NewPingChecker("database", database.Ping(db)))
	if client != nil {
		checker.Register(health.NewPingChecker("redis", cache.NewRedisCache(client, nil).Ping))
	}
	return checker
}

// newIdempotencyConfig 幂等性中间件配置，redis 未配置时中间件直接放行
func newIdempotencyConfig(client *redis.Client, logger log.Logger) middleware.IdempotencyConfig {
	return middleware.IdempotencyConfig{
		RedisClient: client,
		KeyPrefix:   cacheKeyPrefix + ":idempotency",
		Logger:      logger,
	}
}
