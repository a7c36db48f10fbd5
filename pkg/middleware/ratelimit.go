/**
 * @description
 * Rate limiting middleware for the account API. Uses an in-memory token
 * bucket per client IP.
 *
 * @dependencies
 * - sync: For thread-safe operations
 * - net/http: For HTTP middleware
 */
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// tokenBucket tracks the remaining request allowance for one client.
type tokenBucket struct {
	tokens     int
	capacity   int
	lastRefill time.Time
	refillRate time.Duration
}

// RateLimiter hands out request allowances keyed by client IP.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*tokenBucket
	capacity   int
	refillRate time.Duration
}

// NewRateLimiter creates a rate limiter allowing requestsPerMinute sustained
// requests per client with the same burst capacity.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	rl := &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		capacity:   requestsPerMinute,
		refillRate: time.Minute / time.Duration(requestsPerMinute),
	}
	go rl.cleanupExpiredBuckets()
	return rl
}

// Allow reports whether a request from the given key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &tokenBucket{
			tokens:     rl.capacity,
			capacity:   rl.capacity,
			lastRefill: time.Now(),
			refillRate: rl.refillRate,
		}
		rl.buckets[key] = bucket
	}

	now := time.Now()
	refilled := int(now.Sub(bucket.lastRefill) / bucket.refillRate)
	if refilled > 0 {
		bucket.tokens = min(bucket.capacity, bucket.tokens+refilled)
		bucket.lastRefill = now
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}
	return false
}

// cleanupExpiredBuckets drops buckets idle for long enough to be full again,
// bounding memory on churning client populations.
func (rl *RateLimiter) cleanupExpiredBuckets() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, bucket := range rl.buckets {
			if now.Sub(bucket.lastRefill) > 10*time.Minute {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware creates a rate limiting middleware keyed by client IP.
func RateLimitMiddleware(requestsPerMinute int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requestsPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the originating client IP, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndexByte(ip, ':'); idx >= 0 {
		return ip[:idx]
	}
	return ip
}
