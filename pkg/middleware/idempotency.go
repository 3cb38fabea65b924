package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	pkgerrors "datacuration/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	IdempotencyTTL            = 120 * time.Second // 幂等性保持时间
	idempotencyLockTTL        = 30 * time.Second
)

// IdempotencyConfig 幂等性配置
type IdempotencyConfig struct {
	RedisClient *redis.Client
	KeyPrefix   string
	TTL         time.Duration
	Logger      log.Logger
}

// storedResponse 缓存的响应
type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Idempotency 创建幂等性中间件。携带 Idempotency-Key 的成功请求在 TTL 内重放首次响应；
// Redis 不可用时请求照常处理
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	if config.RedisClient == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "idempotency"
	}
	if config.TTL == 0 {
		config.TTL = IdempotencyTTL
	}
	if config.Logger == nil {
		config.Logger = log.DefaultLogger
	}
	helper := log.NewHelper(log.With(config.Logger, "module", "middleware/idempotency"))

	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		redisKey := IdempotencyRedisKey(config.KeyPrefix, c.Request.Method, c.Request.URL.Path, idempotencyKey)
		ctx := c.Request.Context()

		// 已处理，返回缓存结果
		cached, err := config.RedisClient.Get(ctx, redisKey).Bytes()
		if err == nil {
			var stored storedResponse
			if jerr := json.Unmarshal(cached, &stored); jerr == nil {
				c.Header(IdempotencyReplayedHeader, "true")
				c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
				c.Abort()
				return
			}
		} else if err != redis.Nil {
			helper.WithContext(ctx).Warnf("idempotency lookup failed, processing request: %v", err)
			c.Next()
			return
		}

		lockKey := redisKey + ":lock"
		locked, err := config.RedisClient.SetNX(ctx, lockKey, "1", idempotencyLockTTL).Result()
		if err != nil {
			helper.WithContext(ctx).Warnf("idempotency lock failed, processing request: %v", err)
			c.Next()
			return
		}
		if !locked {
			c.AbortWithStatusJSON(http.StatusConflict, pkgerrors.NewErrorResponse(
				pkgerrors.NewConcurrentModification("request with this idempotency key is being processed"),
			))
			return
		}
		defer config.RedisClient.Del(ctx, lockKey)

		writer := &responseWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		payload, err := json.Marshal(storedResponse{Status: status, Body: writer.body})
		if err != nil {
			return
		}
		if err := config.RedisClient.Set(ctx, redisKey, payload, config.TTL).Err(); err != nil {
			helper.WithContext(ctx).Warnf("failed to store idempotent response: %v", err)
		}
	}
}

// IdempotencyRedisKey 由请求方法、路径和幂等性Key生成缓存键
func IdempotencyRedisKey(prefix, method, path, idempotencyKey string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", method, path, idempotencyKey)))
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// responseWriter 用于捕获响应body
type responseWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body = append(w.body, data...)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body = append(w.body, s...)
	return w.ResponseWriter.WriteString(s)
}
