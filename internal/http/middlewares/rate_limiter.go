package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter keyed per client. State lives in
// process memory, so with several API replicas each enforces its own budget.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	windows map[string]*countWindow
}

type countWindow struct {
	hits    int
	resetAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*countWindow),
	}
}

// allow records one hit for key and reports whether it fits the budget.
// When it does not, the second return carries the Retry-After seconds.
func (rl *RateLimiter) allow(key string, now time.Time) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]

	if !ok || now.After(w.resetAt) {
		rl.windows[key] = &countWindow{hits: 1, resetAt: now.Add(rl.window)}
		return true, 0
	}

	if w.hits >= rl.limit {
		retryAfter := int(w.resetAt.Sub(now).Seconds())

		if retryAfter < 0 {
			retryAfter = 0
		}

		return false, retryAfter
	}

	w.hits++
	return true, 0
}

// RateLimiterMiddleware enforces the limit for the key keyFn derives. An
// empty key falls back to the client IP.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		ok, retryAfter := rl.allow(key, time.Now())

		if !ok {
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

// KeyByIP buckets unauthenticated traffic, used on the credential endpoints.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP buckets authenticated traffic per account, falling back to
// the IP when no claims are on the request.
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// ClientIP honors X-Forwarded-For / X-Real-IP when trusted proxies are
	// configured; strip any port it carries
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
