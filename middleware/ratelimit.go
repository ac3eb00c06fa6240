// middleware/ratelimit.go - Token bucket rate limiting
package middleware

import (
	"sync"
	"time"

	"github.com/la7jones92/spooky-race/utils"

	"github.com/gofiber/fiber/v2"
)

// TokenBucket is a simple refilling bucket, one per client key.
type TokenBucket struct {
	tokens         float64
	maxTokens      float64
	refillRate     float64 // tokens per second
	lastRefillTime time.Time
	mu             sync.Mutex
}

func NewTokenBucket(maxTokens, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
	tb.lastRefillTime = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimiter keys buckets by client (IP, or IP+entry code for submissions).
type RateLimiter struct {
	buckets map[string]*TokenBucket
	mu      sync.Mutex

	maxRequests   int
	windowSeconds int
}

func NewRateLimiter(maxRequests, windowSeconds int) *RateLimiter {
	rl := &RateLimiter{
		buckets:       make(map[string]*TokenBucket),
		maxRequests:   maxRequests,
		windowSeconds: windowSeconds,
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	bucket, exists := rl.buckets[key]
	if !exists {
		refillRate := float64(rl.maxRequests) / float64(rl.windowSeconds)
		bucket = NewTokenBucket(float64(rl.maxRequests), refillRate)
		rl.buckets[key] = bucket
	}
	rl.mu.Unlock()
	return bucket.Allow()
}

// cleanupLoop drops buckets idle for 30 minutes.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, bucket := range rl.buckets {
			bucket.mu.Lock()
			idle := now.Sub(bucket.lastRefillTime) > 30*time.Minute
			bucket.mu.Unlock()
			if idle {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

var (
	generalLimiter *RateLimiter
	submitLimiter  *RateLimiter
	limiterOnce    sync.Once
)

func initLimiters() {
	generalMax := utils.GetenvInt("RATE_LIMIT_MAX_REQUESTS", 300)
	generalWindow := utils.GetenvInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if generalWindow <= 0 {
		generalWindow = 60
	}

	// Completion codes are guessable; keep submissions on a tight budget.
	submitMax := utils.GetenvInt("SUBMIT_RATE_LIMIT_MAX", 15)
	submitWindow := utils.GetenvInt("SUBMIT_RATE_LIMIT_WINDOW_SECONDS", 60)
	if submitWindow <= 0 {
		submitWindow = 60
	}

	generalLimiter = NewRateLimiter(generalMax, generalWindow)
	submitLimiter = NewRateLimiter(submitMax, submitWindow)
}

// RateLimit limits all API traffic per client IP.
func RateLimit() fiber.Handler {
	limiterOnce.Do(initLimiters)
	return func(c *fiber.Ctx) error {
		if !generalLimiter.Allow(c.IP()) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many requests. Please slow down.",
			})
		}
		return c.Next()
	}
}

// SubmitRateLimit applies the stricter code-submission budget per IP.
func SubmitRateLimit() fiber.Handler {
	limiterOnce.Do(initLimiters)
	return func(c *fiber.Ctx) error {
		if !submitLimiter.Allow(c.IP()) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many attempts. Wait a moment and try again.",
			})
		}
		return c.Next()
	}
}
