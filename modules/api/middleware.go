package api

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	domain "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// ClaimsContextKey is the key used to store verified claims in the
	// Fiber context.
	ClaimsContextKey = "claims"
	// UserIDContextKey is the key used to store the authenticated user ID.
	// The rate limiter keys its counters on it.
	UserIDContextKey = "user_id"
)

// AuthMiddleware creates a middleware that validates JWT tokens.
func AuthMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "Invalid authorization header format. Use: Bearer <token>")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "Token is required")
		}

		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil {
			return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "Invalid or expired token")
		}

		c.Locals(ClaimsContextKey, claims)
		c.Locals(UserIDContextKey, claims.UserID)

		return c.Next()
	}
}

// OwnershipMiddleware compares the user_id path segment with the token
// subject. It runs after AuthMiddleware on every task route, so handlers
// never re-check ownership themselves.
func OwnershipMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pathUserID := c.Params("user_id")
		if _, err := uuid.Parse(pathUserID); err != nil {
			return validationError(c, "User ID must be a valid UUID")
		}

		claims, ok := c.Locals(ClaimsContextKey).(*domain.Claims)
		if !ok {
			return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "User not authenticated")
		}

		if claims.UserID != pathUserID {
			return fail(c, fiber.StatusForbidden, CodeForbidden, "User ID in token does not match URL path")
		}

		return c.Next()
	}
}

// SecurityHeaders applies hardening headers to every response. HSTS is only
// sent in production, local HTTP development would otherwise pin browsers to
// HTTPS.
func SecurityHeaders() fiber.Handler {
	production := os.Getenv("APP_ENV") == "production"

	return func(c *fiber.Ctx) error {
		err := c.Next()

		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Content-Security-Policy", "default-src 'self'")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		if production {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		return err
	}
}

// ResponseTime reports handler latency in the X-Response-Time header and
// logs requests slower than the configured threshold.
func ResponseTime() fiber.Handler {
	threshold := 1000.0
	if raw := os.Getenv("SLOW_REQUEST_THRESHOLD_MS"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			threshold = parsed
		}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0

		c.Set("X-Response-Time", fmt.Sprintf("%.2fms", elapsed))
		if elapsed > threshold {
			log.Printf("[api] Slow request: %s %s took %.2fms (threshold %.0fms)",
				c.Method(), c.Path(), elapsed, threshold)
		}

		return err
	}
}
