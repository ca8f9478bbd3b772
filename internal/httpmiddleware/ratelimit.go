package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is an in-memory per-client token bucket; for multi-process
// deployments move the counters to Redis.
type RateLimiter struct {
	capacity  int
	perMinute int
	keyFn     func(*gin.Context) string

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per client,
// with bursts up to capacity. Clients are keyed by IP unless keyFn is set.
func NewRateLimiter(capacity, perMinute int) *RateLimiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &RateLimiter{
		capacity:  capacity,
		perMinute: perMinute,
		keyFn:     func(c *gin.Context) string { return c.ClientIP() },
		buckets:   make(map[string]*bucket),
	}
}

// WithKeyFunc overrides the client key, e.g. to read a proxy header.
func (l *RateLimiter) WithKeyFunc(fn func(*gin.Context) string) *RateLimiter {
	l.keyFn = fn
	return l
}

// Middleware returns a gin handler enforcing the limit.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.keyFn(c)
		if key == "" {
			key = "unknown"
		}
		if !l.allow(key) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: float64(l.capacity) - 1, last: now}
		return true
	}

	refill := now.Sub(b.last).Seconds() * float64(l.perMinute) / 60
	b.tokens += refill
	if b.tokens > float64(l.capacity) {
		b.tokens = float64(l.capacity)
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
