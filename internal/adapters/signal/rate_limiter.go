package signal

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps one token bucket per key (connection id, client IP).
// Buckets idle long enough to have refilled are dropped.
type KeyedRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastPrune time.Time
	now       func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewKeyedRateLimiter(limit rate.Limit, burst int) *KeyedRateLimiter {
	idle := time.Minute
	if limit > 0 && limit != rate.Inf {
		if refill := time.Duration(float64(burst) / float64(limit) * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &KeyedRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

func (rl *KeyedRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastPrune) > rl.idle {
		rl.pruneLocked(now)
	}
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

func (rl *KeyedRateLimiter) Forget(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

func (rl *KeyedRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *KeyedRateLimiter) pruneLocked(now time.Time) {
	for key, b := range rl.buckets {
		if now.Sub(b.seen) > rl.idle {
			delete(rl.buckets, key)
		}
	}
	rl.lastPrune = now
}
