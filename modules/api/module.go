package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/ratelimit"
	"github.com/example/task-manager/modules/task"
	"github.com/example/task-manager/modules/transfer"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// APIModule is the HTTP API module.
type APIModule struct {
	app             *fiber.App
	port            string
	auth            auth.AuthPort
	tasks           task.TaskPort
	transfer        transfer.TransferPort
	rateLimitModule *ratelimit.Module
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule() *APIModule {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return &APIModule{port: port}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "transfer"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.auth = auth.NewAuthAdapter(container)
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	case "transfer":
		m.transfer = transfer.NewTransferAdapter(container)
	}
}

// SetRateLimitModule sets the rate limiting module dependency. Nil disables
// rate limiting. The module must be registered before this one so its
// limiters exist by the time routes are built.
func (m *APIModule) SetRateLimitModule(rlm *ratelimit.Module) {
	m.rateLimitModule = rlm
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.auth == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.tasks == nil {
		return fmt.Errorf("task dependency not set")
	}
	if m.transfer == nil {
		return fmt.Errorf("transfer dependency not set")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(SecurityHeaders())
	m.app.Use(ResponseTime())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowCredentials: true,
	}))

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%s", m.port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":         m.port,
			"rate_limited": m.rateLimitModule != nil,
		},
	}
}

// setupRoutes configures all API routes.
func (m *APIModule) setupRoutes() {
	h := NewHandlers(m.auth, m.tasks, m.transfer)

	m.app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Task Manager API is running",
			"version": "1.0.0",
		})
	})
	m.app.Get("/health", healthHandler)
	m.app.Get("/api/health", healthHandler)

	api := m.app.Group("/api")

	// Public auth routes, profile requires a token.
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", h.Refresh)
	authRoutes.Get("/me", AuthMiddleware(m.auth), h.Me)

	// Task routes. Every route checks the token and path ownership, the
	// default request budget applies on top when rate limiting is wired.
	var limiter ratelimit.MiddlewarePort
	if m.rateLimitModule != nil {
		limiter = m.rateLimitModule.Port()
	}

	tasks := api.Group("/:user_id/tasks", AuthMiddleware(m.auth), OwnershipMiddleware())
	advanced := passthrough
	if limiter != nil {
		tasks.Use(limiter.Default())
		advanced = limiter.Advanced()
	}

	// Literal segments register before :task_id so they are never shadowed.
	// The heavy endpoints carry the stricter advanced budget as well.
	tasks.Get("/export", advanced, h.ExportTasks)
	tasks.Post("/import", advanced, h.ImportTasks)
	tasks.Get("/statistics", advanced, h.Statistics)
	tasks.Post("/bulk", advanced, h.BulkApply)

	tasks.Post("/", h.CreateTask)
	tasks.Get("/", h.ListTasks)
	tasks.Get("/:task_id", h.GetTask)
	tasks.Put("/:task_id", h.UpdateTask)
	tasks.Delete("/:task_id", h.DeleteTask)
	tasks.Patch("/:task_id/complete", h.ToggleComplete)
}

// passthrough stands in for the advanced limiter when rate limiting is
// disabled.
func passthrough(c *fiber.Ctx) error {
	return c.Next()
}

func healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"status":  "healthy",
		"message": "API is operational",
	})
}

// corsOrigins reads the allowed origins, comma separated.
func corsOrigins() string {
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		return origins
	}
	return "http://localhost:3000"
}

// customErrorHandler shapes errors that escape handlers, route misses
// included, into the standard error envelope.
func customErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		message = fiberErr.Message
	}

	code := CodeInternalError
	switch status {
	case fiber.StatusBadRequest:
		code = CodeValidationError
	case fiber.StatusUnauthorized:
		code = CodeUnauthorized
	case fiber.StatusForbidden:
		code = CodeForbidden
	case fiber.StatusNotFound:
		code = CodeNotFound
	case fiber.StatusTooManyRequests:
		code = CodeRateLimited
	}

	if status == fiber.StatusInternalServerError {
		log.Printf("[api] Unhandled error: %v", err)
		message = "Internal server error"
	}

	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   ErrorBody{Code: code, Message: message},
	})
}
