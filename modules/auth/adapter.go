package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-manager/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort is the interface other modules use to reach auth functionality
// without importing its internals. It covers the whole account lifecycle so
// consumers never talk to the service container directly.
type AuthPort interface {
	Register(ctx context.Context, email, password, name string) (*RegisterResponse, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// AuthAdapter implements AuthPort over the service container. Service errors
// pass through unwrapped so callers can match on their exact messages.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{container: container}
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req) (*Resp, error) {
	var resp Resp
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and signs the new user in.
func (a *AuthAdapter) Register(ctx context.Context, email, password, name string) (*RegisterResponse, error) {
	req := RegisterRequest{Email: email, Password: password, Name: name}
	return call[RegisterRequest, RegisterResponse](ctx, a.container, "register", &req)
}

// Login authenticates credentials and returns a token pair.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := LoginRequest{Email: email, Password: password}
	return call[LoginRequest, LoginResponse](ctx, a.container, "login", &req)
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	return call[RefreshRequest, RefreshResponse](ctx, a.container, "refresh", &req)
}

// ValidateToken validates an access token and returns its claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	resp, err := call[ValidateTokenRequest, ValidateTokenResponse](ctx, a.container, "validate-token", &req)
	if err != nil {
		return nil, err
	}

	if !resp.Valid {
		return nil, fmt.Errorf("token validation failed: %s", resp.Error)
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
	}, nil
}

// GetUser retrieves a user's profile by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := GetProfileRequest{UserID: userID}
	resp, err := call[GetProfileRequest, GetProfileResponse](ctx, a.container, "get-profile", &req)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		ID:        resp.ID,
		Email:     resp.Email,
		Name:      resp.Name,
		CreatedAt: resp.CreatedAt,
	}, nil
}
