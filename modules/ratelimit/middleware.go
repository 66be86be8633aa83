package ratelimit

import (
	"fmt"
	"log"
	"strconv"

	domain "github.com/example/task-manager/domain/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// MiddlewarePort is the interface the api module mounts. Default guards
// ordinary task routes, Advanced guards the resource-intensive ones
// (statistics, bulk, export, import).
type MiddlewarePort interface {
	Default() fiber.Handler
	Advanced() fiber.Handler
}

// Middleware builds Fiber handlers over two sliding window limiters that
// share one Redis client but never share counters.
type Middleware struct {
	defaultLimiter  *SlidingWindowLimiter
	advancedLimiter *SlidingWindowLimiter
}

// Compile-time interface check.
var _ MiddlewarePort = (*Middleware)(nil)

// NewMiddleware creates the rate limiting middleware.
func NewMiddleware(client *redis.Client, defaultCfg, advancedCfg domain.Config) *Middleware {
	return &Middleware{
		defaultLimiter:  NewSlidingWindowLimiter(client, defaultCfg, domain.KeyPrefix+domain.ScopeDefault+":"),
		advancedLimiter: NewSlidingWindowLimiter(client, advancedCfg, domain.KeyPrefix+domain.ScopeAdvanced+":"),
	}
}

// Default returns middleware enforcing the default per-caller limit.
func (m *Middleware) Default() fiber.Handler {
	return m.limit(m.defaultLimiter)
}

// Advanced returns middleware enforcing the stricter advanced limit.
func (m *Middleware) Advanced() fiber.Handler {
	return m.limit(m.advancedLimiter)
}

// limit builds a handler around one limiter. Limiter failures after
// startup fail open so a Redis outage never takes the API down with it.
func (m *Middleware) limit(limiter *SlidingWindowLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := limiter.Allow(c.Context(), callerKey(c))
		if err != nil {
			log.Printf("[ratelimit] Check failed, allowing request: %v", err)
			return c.Next()
		}

		setRateLimitHeaders(c, result, limiter.Config().RequestsPerWindow)

		if !result.Allowed {
			return sendRateLimitExceeded(c, result)
		}
		return c.Next()
	}
}

// callerKey identifies the caller: the authenticated user when the auth
// middleware has run, the client IP otherwise.
func callerKey(c *fiber.Ctx) string {
	if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.IP()
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(c *fiber.Ctx, result *domain.Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// sendRateLimitExceeded sends a 429 Too Many Requests in the API error
// envelope, with a Retry-After hint of at least one second.
func sendRateLimitExceeded(c *fiber.Ctx, result *domain.Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    "RATE_LIMITED",
			"message": fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
		},
	})
}
