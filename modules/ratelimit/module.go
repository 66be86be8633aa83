package ratelimit

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	domain "github.com/example/task-manager/domain/ratelimit"
	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis connection backing the rate limiters and hands the
// Fiber middleware to the api module through Port.
type Module struct {
	client      *redis.Client
	middleware  *Middleware
	redisAddr   string
	redisPass   string
	redisDB     int
	defaultCfg  domain.Config
	advancedCfg domain.Config
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new rate limiting module configured from the
// environment: REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, RATE_LIMIT_PER_MINUTE,
// and ADVANCED_RATE_LIMIT_PER_MINUTE.
func NewModule() *Module {
	defaultCfg := domain.DefaultConfig()
	defaultCfg.RequestsPerWindow = envInt("RATE_LIMIT_PER_MINUTE", defaultCfg.RequestsPerWindow)

	advancedCfg := domain.AdvancedConfig()
	advancedCfg.RequestsPerWindow = envInt("ADVANCED_RATE_LIMIT_PER_MINUTE", advancedCfg.RequestsPerWindow)

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	return &Module{
		redisAddr:   addr,
		redisPass:   os.Getenv("REDIS_PASSWORD"),
		redisDB:     envInt("REDIS_DB", 0),
		defaultCfg:  defaultCfg,
		advancedCfg: advancedCfg,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ratelimit"
}

// Start connects to Redis and builds the middleware. An unreachable Redis
// fails startup; only per-request failures after this point fail open.
func (m *Module) Start(ctx context.Context) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:     m.redisAddr,
		Password: m.redisPass,
		DB:       m.redisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.redisAddr, err)
	}

	m.middleware = NewMiddleware(m.client, m.defaultCfg, m.advancedCfg)

	log.Printf("[ratelimit] Connected to Redis at %s (default %d/min, advanced %d/min)",
		m.redisAddr, m.defaultCfg.RequestsPerWindow, m.advancedCfg.RequestsPerWindow)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	log.Println("[ratelimit] Redis connection closed")
	return nil
}

// Health reports whether Redis is reachable.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "Redis client not initialized",
		}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("Redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr": m.redisAddr,
		},
	}
}

// Port returns the middleware for the api module to mount. It is nil until
// Start has run.
func (m *Module) Port() MiddlewarePort {
	if m.middleware == nil {
		return nil
	}
	return m.middleware
}

// envInt reads an integer environment variable, falling back to def when
// unset or unparseable.
func envInt(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer value for %s: %q, using default %d", key, value, def)
		return def
	}
	return n
}
