package rate_limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key (client IP, volunteer id).
// Buckets hold `limit` tokens and refill evenly across `window`, which
// tolerates honest bursts (duplicate network retries) while shedding floods.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    int
	interval rate.Limit
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		limit:    limit,
		interval: rate.Every(window / time.Duration(limit)),
	}

	go rl.cleanupLoop(window)

	return rl
}

// cleanupLoop drops buckets idle for longer than the window so the map does
// not grow with every key ever seen.
func (rl *RateLimiter) cleanupLoop(window time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-window)
		for key, b := range rl.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) IsAllowed(key string) bool {
	return rl.bucketFor(key).limiter.Allow()
}

// GetRemainingRequests returns how many requests the key may still issue
// before the bucket runs dry.
func (rl *RateLimiter) GetRemainingRequests(key string) int {
	remaining := int(rl.bucketFor(key).limiter.Tokens())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (rl *RateLimiter) bucketFor(key string) *bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{limiter: rate.NewLimiter(rl.interval, rl.limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()

	return b
}
