package api

import (
	"time"

	"github.com/example/task-manager/modules/task"
)

// Error codes carried in the error envelope.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// ErrorBody is the error half of the failure envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the envelope of every non-2xx response.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// SuccessResponse is the success envelope for operations with no payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DataResponse wraps a payload in the success envelope.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ListMeta carries pagination metadata on list responses.
type ListMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// ListResponse is one page of tasks plus pagination metadata.
type ListResponse struct {
	Data    []task.TaskResponse `json:"data"`
	Meta    ListMeta            `json:"meta"`
	Success bool                `json:"success"`
}

// BulkData reports how many tasks a bulk operation touched.
type BulkData struct {
	Affected int `json:"affected"`
}

// UserData is the wire shape of a user profile.
type UserData struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthData is a freshly signed-in user, profile plus token pair.
type AuthData struct {
	User         UserData `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	TokenType    string   `json:"token_type"`
}

// TokenData is a bare token pair.
type TokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// RegisterBody is the registration request body.
type RegisterBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginBody is the login request body.
type LoginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshBody is the token refresh request body.
type RefreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// CreateTaskBody is the task creation request body. The due date stays a
// string until the handler parses it, so every ISO 8601 form is accepted.
type CreateTaskBody struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	DueDate     *string  `json:"due_date"`
	Tags        []string `json:"tags"`
}

// UpdateTaskBody is the partial update request body. Absent fields leave the
// task untouched. Completion is not updatable here, the complete endpoint
// owns that transition.
type UpdateTaskBody struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Priority    *string   `json:"priority"`
	DueDate     *string   `json:"due_date"`
	Tags        *[]string `json:"tags"`
}

// ToggleBody is the completion toggle request body. The pointer
// distinguishes an explicit false from a missing field.
type ToggleBody struct {
	Completed *bool `json:"completed"`
}

// BulkBody is the bulk operation request body. IDs bind as int64 so negative
// values survive decoding and reach validation.
type BulkBody struct {
	Action   string  `json:"action"`
	TaskIDs  []int64 `json:"task_ids"`
	Priority string  `json:"priority"`
}
