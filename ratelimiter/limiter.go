// Package ratelimiter throttles callers with one token bucket per key.
package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	defaultIdleTTL         = 10 * time.Minute
)

// Config sets the bucket size and refill rate applied to every key.
// A non-positive RequestsPerSecond disables limiting.
type Config struct {
	RequestsPerSecond float64
	Burst             int
	IdleTTL           time.Duration
}

func (c Config) Enabled() bool {
	return c.RequestsPerSecond > 0
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps an independent bucket for each key, such as a client address.
// Buckets idle longer than IdleTTL are dropped by Run.
type KeyedLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cfg     Config
	now     func() time.Time
}

func NewKeyedLimiter(cfg Config) *KeyedLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.RequestsPerSecond))
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}

	return &KeyedLimiter{
		buckets: make(map[string]*bucket),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Allow consumes one token for key.
func (k *KeyedLimiter) Allow(key string) bool {
	if !k.cfg.Enabled() {
		return true
	}
	if key == "" {
		key = "unknown"
	}

	now := k.now()

	k.mu.Lock()
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(k.cfg.RequestsPerSecond), k.cfg.Burst)}
		k.buckets[key] = b
	}
	b.lastSeen = now
	k.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// Prune drops buckets not used within IdleTTL.
func (k *KeyedLimiter) Prune() {
	cutoff := k.now().Add(-k.cfg.IdleTTL)

	k.mu.Lock()
	defer k.mu.Unlock()
	for key, b := range k.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(k.buckets, key)
		}
	}
}

// Run prunes idle buckets until ctx is done.
func (k *KeyedLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.Prune()
		case <-ctx.Done():
			return
		}
	}
}
