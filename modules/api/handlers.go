package api

import (
	"log"
	"strings"

	domain "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/example/task-manager/modules/transfer"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth     auth.AuthPort
	tasks    task.TaskPort
	transfer transfer.TransferPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, tasks task.TaskPort, transferPort transfer.TransferPort) *Handlers {
	return &Handlers{
		auth:     authPort,
		tasks:    tasks,
		transfer: transferPort,
	}
}

// Register handles user registration. The auth module signs the new user in,
// so the response carries the profile and a fresh token pair.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterBody
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return validationError(c, "Email and password are required")
	}

	resp, err := h.auth.Register(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		return h.mapAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(DataResponse{
		Success: true,
		Data: AuthData{
			User: UserData{
				ID:        resp.ID,
				Email:     resp.Email,
				Name:      resp.Name,
				CreatedAt: resp.CreatedAt,
			},
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresIn:    resp.ExpiresIn,
			TokenType:    resp.TokenType,
		},
	})
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginBody
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return validationError(c, "Email and password are required")
	}

	resp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.mapAuthError(c, err)
	}

	return c.JSON(DataResponse{
		Success: true,
		Data: TokenData{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresIn:    resp.ExpiresIn,
			TokenType:    resp.TokenType,
		},
	})
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshBody
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return validationError(c, "Refresh token is required")
	}

	resp, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "Invalid or expired refresh token")
	}

	return c.JSON(DataResponse{
		Success: true,
		Data: TokenData{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresIn:    resp.ExpiresIn,
			TokenType:    resp.TokenType,
		},
	})
}

// Me returns the authenticated user's profile.
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims, ok := c.Locals(ClaimsContextKey).(*domain.Claims)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "User not authenticated")
	}

	user, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		log.Printf("[api] Failed to load profile for %s: %v", claims.UserID, err)
		return internalError(c)
	}

	return c.JSON(DataResponse{
		Success: true,
		Data: UserData{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			CreatedAt: user.CreatedAt,
		},
	})
}

// mapAuthError matches known auth error messages to client responses without
// exposing internals.
func (h *Handlers) mapAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid email or password"):
		return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "Invalid email or password")
	case strings.Contains(errStr, "user with this email already exists"):
		return fail(c, fiber.StatusConflict, CodeConflict, "User with this email already exists")
	case strings.Contains(errStr, "invalid email format"):
		return validationError(c, "Invalid email format")
	case strings.Contains(errStr, "password must be at least"):
		return validationError(c, "Password must be at least 8 characters")
	case strings.Contains(errStr, "password must be at most"):
		return validationError(c, "Password must be at most 72 characters")
	case strings.Contains(errStr, "name cannot be empty"):
		return validationError(c, "Name cannot be empty")
	case strings.Contains(errStr, "name must be at most"):
		return validationError(c, "Name must be at most 100 characters")
	default:
		log.Printf("[api] Internal error: %v", err)
		return internalError(c)
	}
}
