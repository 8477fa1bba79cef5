package server

import (
	"sync"
	"time"

	"github.com/raaihank/redactview/internal/config"
	"golang.org/x/time/rate"
)

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	config   config.RateLimitConfig
	limiters map[string]*clientLimiter
	mu       sync.Mutex
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newIPRateLimiter creates a per-IP rate limiter.
func newIPRateLimiter(cfg config.RateLimitConfig) *ipRateLimiter {
	return &ipRateLimiter{
		config:   cfg,
		limiters: make(map[string]*clientLimiter),
	}
}

// Allow checks if a request from the given client IP is allowed.
func (l *ipRateLimiter) Allow(clientIP string) bool {
	if !l.config.Enabled {
		return true
	}

	l.mu.Lock()
	entry, ok := l.limiters[clientIP]
	if !ok {
		entry = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(l.config.RequestsPerMin)/60.0), l.config.Burst),
		}
		l.limiters[clientIP] = entry
	}
	entry.lastSeen = time.Now()
	l.mu.Unlock()

	return entry.limiter.Allow()
}

// cleanup removes buckets idle for over an hour to bound memory.
func (l *ipRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-time.Hour)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// StartCleanupRoutine starts a background routine to clean up old buckets.
func (l *ipRateLimiter) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			l.cleanup()
		}
	}()
}
