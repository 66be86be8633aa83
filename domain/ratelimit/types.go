// Package ratelimit provides domain types and interfaces for rate limiting.
package ratelimit

import (
	"context"
	"time"
)

// KeyPrefix is the namespace shared by every rate limit key in Redis.
// Scope and caller identity are appended to it.
const KeyPrefix = "ratelimit:tasks:"

// Scopes partition the key space so the default and advanced limiters
// never share counters.
const (
	ScopeDefault  = "default"
	ScopeAdvanced = "advanced"
)

// Config bounds one limiter: at most RequestsPerWindow requests within any
// WindowSize span.
type Config struct {
	RequestsPerWindow int
	WindowSize        time.Duration
}

// Result is the outcome of one limit check. Remaining and ResetAt feed the
// X-RateLimit response headers; RetryAfter is set only on denial.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter answers whether the request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	Close() error
}

// DefaultConfig returns the limit applied to ordinary task routes,
// 100 requests per minute unless overridden.
func DefaultConfig() Config {
	return Config{
		RequestsPerWindow: 100,
		WindowSize:        time.Minute,
	}
}

// AdvancedConfig returns the stricter limit applied to resource-intensive
// routes (statistics, bulk, export, import), 10 requests per minute unless
// overridden.
func AdvancedConfig() Config {
	return Config{
		RequestsPerWindow: 10,
		WindowSize:        time.Minute,
	}
}
