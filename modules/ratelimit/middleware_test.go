package ratelimit

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	domain "github.com/example/task-manager/domain/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// setupMiddlewareApp creates a Fiber app with small budgets so tests can
// exhaust them quickly. A header-driven stand-in for the auth middleware
// sets the user id local that callerKey reads.
func setupMiddlewareApp(t *testing.T) (*fiber.App, *Middleware) {
	t.Helper()

	client := testRedisClient(t)

	mw := &Middleware{
		defaultLimiter: NewSlidingWindowLimiter(client, domain.Config{
			RequestsPerWindow: 3,
			WindowSize:        time.Minute,
		}, "test:ratelimit:mw:default:"),
		advancedLimiter: NewSlidingWindowLimiter(client, domain.Config{
			RequestsPerWindow: 2,
			WindowSize:        time.Minute,
		}, "test:ratelimit:mw:advanced:"),
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if user := c.Get("X-Test-User"); user != "" {
			c.Locals("user_id", user)
		}
		return c.Next()
	})

	t.Cleanup(func() {
		app.Shutdown()
	})

	return app, mw
}

func requestAs(user, path string) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	return req
}

// TestMiddleware_DefaultLimit tests the default budget, the rate limit
// headers, and the 429 response.
func TestMiddleware_DefaultLimit(t *testing.T) {
	app, mw := setupMiddlewareApp(t)

	app.Get("/tasks", mw.Default(), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	// First 3 requests should succeed
	for i := 0; i < 3; i++ {
		resp, err := app.Test(requestAs("limit-user", "/tasks"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Errorf("Request %d: expected status 200, got %d", i+1, resp.StatusCode)
		}

		if limit := resp.Header.Get("X-RateLimit-Limit"); limit != "3" {
			t.Errorf("Expected X-RateLimit-Limit=3, got %s", limit)
		}
		remaining := strconv.Itoa(2 - i)
		if got := resp.Header.Get("X-RateLimit-Remaining"); got != remaining {
			t.Errorf("Request %d: expected X-RateLimit-Remaining=%s, got %s", i+1, remaining, got)
		}
	}

	// 4th request should be rate limited
	resp, err := app.Test(requestAs("limit-user", "/tasks"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != 429 {
		t.Errorf("Expected status 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "RATE_LIMITED") {
		t.Errorf("Response should contain RATE_LIMITED, got: %s", body)
	}
	if !strings.Contains(string(body), `"success":false`) {
		t.Errorf("Response should report success=false, got: %s", body)
	}
}

// TestMiddleware_CallersHaveSeparateBudgets tests per-user keying.
func TestMiddleware_CallersHaveSeparateBudgets(t *testing.T) {
	app, mw := setupMiddlewareApp(t)

	app.Get("/tasks", mw.Default(), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	// Exhaust the budget for the first user
	for i := 0; i < 3; i++ {
		resp, err := app.Test(requestAs("user-a", "/tasks"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Errorf("Request %d: expected status 200, got %d", i+1, resp.StatusCode)
		}
	}

	resp, err := app.Test(requestAs("user-a", "/tasks"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != 429 {
		t.Errorf("Expected status 429 for exhausted user, got %d", resp.StatusCode)
	}

	// A different user should still have a full budget
	resp, err = app.Test(requestAs("user-b", "/tasks"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Different user should not be rate limited, got %d", resp.StatusCode)
	}
}

// TestMiddleware_AdvancedBudgetIsSeparate tests that advanced routes spend
// from their own budget, not the default one.
func TestMiddleware_AdvancedBudgetIsSeparate(t *testing.T) {
	app, mw := setupMiddlewareApp(t)

	app.Get("/tasks", mw.Default(), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/tasks/export", mw.Advanced(), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	// Exhaust the advanced budget
	for i := 0; i < 2; i++ {
		resp, err := app.Test(requestAs("user-adv", "/tasks/export"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Errorf("Export request %d: expected status 200, got %d", i+1, resp.StatusCode)
		}
		if limit := resp.Header.Get("X-RateLimit-Limit"); limit != "2" {
			t.Errorf("Expected X-RateLimit-Limit=2, got %s", limit)
		}
	}

	resp, err := app.Test(requestAs("user-adv", "/tasks/export"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != 429 {
		t.Errorf("Expected status 429 on exhausted export budget, got %d", resp.StatusCode)
	}

	// The default budget for the same user is untouched
	resp, err = app.Test(requestAs("user-adv", "/tasks"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Default route should still have budget, got %d", resp.StatusCode)
	}
}

// TestMiddleware_AnonymousFallsBackToIP tests IP keying when the auth layer
// set no user id. All app.Test requests share one client address.
func TestMiddleware_AnonymousFallsBackToIP(t *testing.T) {
	app, mw := setupMiddlewareApp(t)

	app.Get("/tasks", mw.Default(), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(requestAs("", "/tasks"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Errorf("Anonymous request %d: expected status 200, got %d", i+1, resp.StatusCode)
		}
	}

	resp, err := app.Test(requestAs("", "/tasks"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != 429 {
		t.Errorf("Expected status 429 for exhausted address, got %d", resp.StatusCode)
	}
}

// TestMiddleware_FailsOpenWhenRedisDown tests that limiter errors let the
// request through. No Redis server is needed for this test.
func TestMiddleware_FailsOpenWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	mw := NewMiddleware(client, domain.DefaultConfig(), domain.AdvancedConfig())

	app := fiber.New()
	app.Get("/tasks", mw.Default(), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	defer app.Shutdown()

	resp, err := app.Test(httptest.NewRequest("GET", "/tasks", nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected request to pass through, got %d", resp.StatusCode)
	}
}
