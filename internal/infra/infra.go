// Package infra provides shared infrastructure components used across
// the application: HTTP clients, a TTL cache and client-side rate limiting.
package infra

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// UserAgent is sent on every outbound request.
const UserAgent = "sastocks/1.0 (+https://github.com/seenimoa/sastocks)"

// HTTPOptions configures NewHTTPClient.
type HTTPOptions struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPClient returns a resty client with the shared defaults. Retries are
// left disabled: a failed call is reported to the caller as-is.
func NewHTTPClient(opts HTTPOptions) *resty.Client {
	c := resty.New().
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetLogger(quietLogger{})
	if opts.BaseURL != "" {
		c.SetBaseURL(opts.BaseURL)
	}
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	return c
}

// quietLogger drops resty's own log lines. Callers report errors themselves.
type quietLogger struct{}

func (quietLogger) Errorf(string, ...interface{}) {}
func (quietLogger) Warnf(string, ...interface{})  {}
func (quietLogger) Debugf(string, ...interface{}) {}

// --- Cache ---

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache whose entries expire after ttl.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
}

// NewCache creates a cache with the given TTL.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{entries: make(map[string]cacheEntry[V]), ttl: ttl}
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate removes key.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// --- Rate limiter ---

// RateLimiter spaces outbound calls so at most maxRequests are issued per
// window. A nil *RateLimiter never blocks.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter that allows maxRequests per window.
// It returns nil (unlimited) when maxRequests or window is not positive.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 || window <= 0 {
		return nil
	}
	every := window / time.Duration(maxRequests)
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(every), maxRequests)}
}

// Wait blocks until a request may be issued or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return ctx.Err()
	}
	return rl.limiter.Wait(ctx)
}
