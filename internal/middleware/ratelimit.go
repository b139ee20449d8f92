package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/attachtrack/attachtrack/internal/app/models/dto"
	"github.com/attachtrack/attachtrack/internal/pkg/logger"
	"github.com/attachtrack/attachtrack/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether the request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

// MemoryLimiter is a fixed-window counter kept in process memory
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	count     int
	windowEnd time.Time
}

// NewMemoryLimiter creates an empty MemoryLimiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*rateBucket), now: time.Now}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.buckets[key]
	if !ok || !now.Before(bucket.windowEnd) {
		l.sweep(now)
		l.buckets[key] = &rateBucket{count: 1, windowEnd: now.Add(window)}
		return true
	}
	if bucket.count >= limit {
		return false
	}
	bucket.count++
	return true
}

// sweep drops expired windows so idle keys do not accumulate
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, bucket := range l.buckets {
		if !now.Before(bucket.windowEnd) {
			delete(l.buckets, key)
		}
	}
}

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter shares fixed windows between instances through Redis
type RedisLimiter struct {
	client redis.Cmdable
	script *redis.Script
	prefix string
}

// NewRedisLimiter creates a RedisLimiter storing counters under prefix
func NewRedisLimiter(client redis.Cmdable, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
		prefix: prefix,
	}
}

// Allow implements Limiter. Redis failures let the request through.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, ttl, limit).Int64()
	if err != nil {
		logger.Warn().Err(err).Msg("Rate limiter unavailable, allowing request")
		return true
	}
	return allowed == 1
}

// RateLimit limits sign-in requests per client IP and the username in the
// JSON body
func RateLimit(limiter Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := c.FullPath() + "|" + c.ClientIP() + "|" + bodyUsername(c)
		if !limiter.Allow(c.Request.Context(), key, limit, window) {
			logger.Warn().Str("ip", c.ClientIP()).Str("path", c.FullPath()).Msg("Rate limit exceeded")
			metrics.RecordLogin("limited")
			detail := dto.NewErrorDetail(dto.ErrorCodeTooManyRequests, "Too many attempts, try again later")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewFailureResponse(detail))
			return
		}
		c.Next()
	}
}

// bodyUsername peeks at the username field and restores the body for the
// handler
func bodyUsername(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var probe struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(probe.Username))
}
