package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/example/task-manager/domain/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestService builds an AuthService over an in-memory database.
func newTestService(t *testing.T) (*AuthService, *UserRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	repo := NewUserRepository(db)
	return NewAuthService(repo, NewJWTManager(testJWTConfig())), repo
}

func TestAuthService_Register(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "password123", "  Alice  ")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == "" {
		t.Error("expected generated user id")
	}
	if user.Name != "Alice" {
		t.Errorf("expected trimmed name Alice, got %q", user.Name)
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if user.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		userName string
		wantErr  error
	}{
		{"invalid email", "not-an-email", "password123", "Bob", ErrInvalidEmail},
		{"short password", "bob@example.com", "1234567", "Bob", ErrWeakPassword},
		{"oversized password", "bob@example.com", strings.Repeat("p", 73), "Bob", ErrPasswordTooLong},
		{"blank name", "bob@example.com", "password123", "   ", ErrEmptyName},
		{"oversized name", "bob@example.com", "password123", strings.Repeat("n", 101), ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password, tt.userName)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dup@example.com", "password123", "First"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "dup@example.com", "password456", "Second")
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_EmailIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Grace@Example.COM", "password123", "Grace")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "grace@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}

	if _, err := svc.Login(ctx, "GRACE@example.com", "password123"); err != nil {
		t.Errorf("Login() with differently cased email error = %v", err)
	}

	_, err = svc.Register(ctx, "grace@EXAMPLE.com", "password456", "Other Grace")
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists for recased duplicate, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "carol@example.com", "password123", "Carol"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		tokens, err := svc.Login(ctx, "carol@example.com", "password123")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if tokens.AccessToken == "" || tokens.RefreshToken == "" {
			t.Error("expected both tokens to be issued")
		}
		if tokens.TokenType != "Bearer" {
			t.Errorf("expected Bearer token type, got %q", tokens.TokenType)
		}
		if tokens.ExpiresIn != int64((15 * 60)) {
			t.Errorf("expected 900s expiry, got %d", tokens.ExpiresIn)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "carol@example.com", "wrong-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "password123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_RefreshTokens(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "dave@example.com", "password123", "Dave")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	tokens, err := svc.Login(ctx, "dave@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	t.Run("valid refresh token", func(t *testing.T) {
		fresh, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
		if err != nil {
			t.Fatalf("RefreshTokens() error = %v", err)
		}
		if fresh.AccessToken == "" || fresh.RefreshToken == "" {
			t.Error("expected a fresh token pair")
		}
	})

	t.Run("access token is rejected", func(t *testing.T) {
		if _, err := svc.RefreshTokens(ctx, tokens.AccessToken); err == nil {
			t.Error("RefreshTokens() must reject access tokens")
		}
	})

	t.Run("deleted user cannot refresh", func(t *testing.T) {
		if err := repo.db.Delete(&domain.User{}, "id = ?", user.ID).Error; err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}
		_, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "erin@example.com", "password123", "Erin")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	tokens, err := svc.Login(ctx, "erin@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	claims, err := svc.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %v, want %v", claims.UserID, user.ID)
	}
	if claims.Email != "erin@example.com" {
		t.Errorf("claims.Email = %v, want erin@example.com", claims.Email)
	}

	if _, err := svc.ValidateToken(ctx, "garbage"); err == nil {
		t.Error("ValidateToken() should reject garbage input")
	}
}

func TestAuthService_GetUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "frank@example.com", "password123", "Frank")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	found, err := svc.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if found.Email != "frank@example.com" || found.Name != "Frank" {
		t.Errorf("unexpected profile %+v", found)
	}

	_, err = svc.GetUser(ctx, "missing-id")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
