package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"crew-recruitment-backend/internal/delivery/http/response"
	"crew-recruitment-backend/internal/domain"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc picks the bucket; defaults to the client IP.
	KeyFunc   func(*gin.Context) string
	KeyPrefix string
	// FailClosed rejects requests when Redis errors instead of falling back
	// to the in-process counter.
	FailClosed bool
}

type rateLimitEntry struct {
	count   int
	resetAt time.Time
	mu      sync.Mutex
}

// KEYS[1] = counter key, ARGV[1] = TTL in seconds. Returns {count, ttl}.
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

// RateLimiter counts requests in Redis when a client is available and in
// memory otherwise.
type RateLimiter struct {
	redis *goredis.Client
	log   *zap.Logger
	store sync.Map
}

func NewRateLimiter(client *goredis.Client, log *zap.Logger) *RateLimiter {
	return &RateLimiter{redis: client, log: log}
}

// HydrateRateLimitConfig bounds the login-time hydration trigger per user.
// Each call fans out to several ATS requests.
func HydrateRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:     5,
		Window:    time.Minute,
		KeyPrefix: "rl:hydrate:",
		KeyFunc: func(c *gin.Context) string {
			if id := c.GetString(string(domain.KeyUserID)); id != "" {
				return id
			}
			return c.ClientIP()
		},
	}
}

// AdminSyncRateLimitConfig bounds manual sync triggers, which hit the ATS directly.
func AdminSyncRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:     60,
		Window:    time.Minute,
		KeyPrefix: "rl:admin-sync:",
	}
}

func (l *RateLimiter) Middleware(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	return func(c *gin.Context) {
		fullKey := config.KeyPrefix + config.KeyFunc(c)
		now := time.Now()

		var count int
		var resetAt time.Time
		if l.redis != nil {
			var err error
			count, resetAt, err = l.checkRedis(c.Request.Context(), fullKey, config)
			if err != nil {
				l.log.Warn("rate limit store unavailable", zap.String("key_prefix", config.KeyPrefix), zap.Error(err))
				if config.FailClosed {
					response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
					c.Abort()
					return
				}
				count, resetAt = l.checkInMemory(fullKey, config, now)
			}
		} else {
			count, resetAt = l.checkInMemory(fullKey, config, now)
		}

		remaining := config.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if count > config.Limit {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			l.log.Info("rate limit triggered",
				zap.String("key_prefix", config.KeyPrefix),
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString(string(domain.KeyRequestID))),
			)
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

func (l *RateLimiter) checkRedis(ctx context.Context, key string, config RateLimitConfig) (int, time.Time, error) {
	result, err := l.redis.Eval(ctx, rateLimitLuaScript, []string{key}, int(config.Window.Seconds())).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}
	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)

	return int(count), time.Now().Add(time.Duration(ttl) * time.Second), nil
}

func (l *RateLimiter) checkInMemory(key string, config RateLimitConfig, now time.Time) (int, time.Time) {
	entryI, _ := l.store.LoadOrStore(key, &rateLimitEntry{resetAt: now.Add(config.Window)})
	entry := entryI.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if now.After(entry.resetAt) {
		entry.count = 0
		entry.resetAt = now.Add(config.Window)
	}
	entry.count++
	return entry.count, entry.resetAt
}
