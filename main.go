// Task Manager API - a modular monolith for multi-tenant task management.
//
// Modules:
// - auth: user accounts, JWT access and refresh tokens
// - task: task CRUD, the query engine, bulk operations, statistics
// - transfer: CSV and JSON export/import built on the task services
// - notification: in-process activity log fed by task events
// - ratelimit: Redis-backed sliding window limits for the HTTP API
// - api: Fiber HTTP server tying it all together
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/task-manager/modules/api"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/notification"
	"github.com/example/task-manager/modules/ratelimit"
	"github.com/example/task-manager/modules/task"
	"github.com/example/task-manager/modules/transfer"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("=== Task Manager API ===")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	shutdownTimeout := getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	log.Printf("Configuration:")
	log.Printf("  HTTP Port: %s", getEnv("PORT", "8080"))
	log.Printf("  Database: %s", getEnv("DB_PATH", "tasks.db"))
	log.Printf("  Redis Address: %s", getEnv("REDIS_ADDR", "localhost:6379"))

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	rateLimitModule := ratelimit.NewModule()
	apiModule := api.NewModule()

	// The rate limiter hands Fiber middleware to the api module directly,
	// outside the service container.
	apiModule.SetRateLimitModule(rateLimitModule)

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(auth.NewModule())
	app.Register(task.NewModule())
	app.Register(transfer.NewModule())
	app.Register(notification.NewModule())
	app.Register(rateLimitModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := getEnv("PORT", "8080")

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/auth/register  - Register and sign in")
	log.Println("  POST   /api/auth/login     - Login and get tokens")
	log.Println("  POST   /api/auth/refresh   - Refresh access token")
	log.Println("  GET    /health             - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/auth/me                           - Current user profile")
	log.Println("  POST   /api/:user_id/tasks                    - Create task")
	log.Println("  GET    /api/:user_id/tasks                    - List tasks (filter, sort, paginate)")
	log.Println("  GET    /api/:user_id/tasks/:task_id           - Get task")
	log.Println("  PUT    /api/:user_id/tasks/:task_id           - Update task")
	log.Println("  DELETE /api/:user_id/tasks/:task_id           - Delete task")
	log.Println("  PATCH  /api/:user_id/tasks/:task_id/complete  - Set completion")
	log.Println("  GET    /api/:user_id/tasks/statistics         - Aggregate counts")
	log.Println("  POST   /api/:user_id/tasks/bulk               - Bulk operations")
	log.Println("  GET    /api/:user_id/tasks/export             - Export as CSV or JSON")
	log.Println("  POST   /api/:user_id/tasks/import             - Import from CSV or JSON")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration returns the duration value of an environment variable or a
// default value. Logs a warning if the value cannot be parsed.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
		log.Printf("Warning: invalid duration value for %s: %q, using default %s", key, value, defaultValue)
	}
	return defaultValue
}
