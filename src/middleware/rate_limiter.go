package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/khabaroff/lms-admin/src/logging"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

// limiterEntry holds a rate limiter with last used timestamp
type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// keyRateLimiter manages per-key rate limiters with automatic cleanup
type keyRateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newKeyRateLimiter(limit rate.Limit, burst int) *keyRateLimiter {
	k := &keyRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    limit,
		burst:    burst,
		stopCh:   make(chan struct{}),
	}
	go k.cleanupLoop()
	return k
}

func (k *keyRateLimiter) getLimiter(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	if entry, ok := k.limiters[key]; ok {
		entry.lastUsed = time.Now()
		return entry.limiter
	}
	limiter := rate.NewLimiter(k.limit, k.burst)
	k.limiters[key] = &limiterEntry{limiter: limiter, lastUsed: time.Now()}
	return limiter
}

func (k *keyRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.cleanup(time.Now())
		case <-k.stopCh:
			return
		}
	}
}

// cleanup removes entries idle since before now - limiterIdleTTL
func (k *keyRateLimiter) cleanup(now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := now.Add(-limiterIdleTTL)
	for key, entry := range k.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(k.limiters, key)
		}
	}
}

func (k *keyRateLimiter) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

// RateLimitConfig defines configuration for the rate limiting middleware
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// IPRateLimiter throttles credential endpoints per client IP. Login and setup
// share one limiter so a client cannot double its budget.
type IPRateLimiter struct {
	keys   *keyRateLimiter
	perMin int
	logger zerolog.Logger
}

// NewIPRateLimiter defaults to 10 requests per minute with a burst of 5
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}

	limit := rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	return &IPRateLimiter{
		keys:   newKeyRateLimiter(limit, cfg.Burst),
		perMin: cfg.RequestsPerMinute,
		logger: logging.NewLogger("rate_limiter"),
	}
}

// Middleware returns the gin handler
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := int(math.Ceil(60 / float64(l.perMin)))

	return func(c *gin.Context) {
		ip := c.ClientIP()

		if !l.keys.getLimiter(ip).Allow() {
			logging.SecurityEvent(&l.logger, zerolog.WarnLevel, "rate_limited").
				Str("ip", ip).
				Str("path", c.Request.URL.Path).
				Str("request_id", GetRequestID(c)).
				Send()

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please try again later.",
			})
			return
		}

		c.Next()
	}
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (l *IPRateLimiter) Stop() {
	l.keys.stopOnce.Do(func() { close(l.keys.stopCh) })
}
