package task

import (
	"context"
	"time"
)

// Actions accepted by the bulk-apply service.
const (
	BulkActionDelete   = "delete"
	BulkActionComplete = "complete"
	BulkActionPending  = "pending"
	BulkActionPriority = "priority"
)

// CreateTaskRequest is the request for creating a task. Completed is only
// set by the import path; the HTTP create handler never binds it.
type CreateTaskRequest struct {
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags"`
	Completed   *bool      `json:"completed,omitempty"`
}

// GetTaskRequest is the request for fetching a single task.
type GetTaskRequest struct {
	UserID string `json:"user_id"`
	TaskID uint   `json:"task_id"`
}

// UpdateTaskRequest is the request for a partial task update. Nil fields
// are left untouched.
type UpdateTaskRequest struct {
	UserID      string     `json:"user_id"`
	TaskID      uint       `json:"task_id"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	UserID string `json:"user_id"`
	TaskID uint   `json:"task_id"`
}

// DeleteTaskResponse is the response after deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// ToggleCompleteRequest is the request for setting a task's completion flag.
type ToggleCompleteRequest struct {
	UserID    string `json:"user_id"`
	TaskID    uint   `json:"task_id"`
	Completed bool   `json:"completed"`
}

// ListTasksRequest carries the filter, sort, and pagination parameters of a
// list query. Tags is the raw comma-separated form; empty enum fields fall
// back to their defaults.
type ListTasksRequest struct {
	UserID        string `json:"user_id"`
	Status        string `json:"status,omitempty"`
	Priority      string `json:"priority,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
	Tags          string `json:"tags,omitempty"`
	Search        string `json:"search,omitempty"`
	Sort          string `json:"sort,omitempty"`
	SortDirection string `json:"sort_direction,omitempty"`
	Page          int    `json:"page,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// ListTasksResponse is one page of tasks plus the pre-pagination total.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int64          `json:"total"`
}

// AllTasksRequest requests the full task set of one owner, newest first.
type AllTasksRequest struct {
	UserID string `json:"user_id"`
}

// AllTasksResponse is the response containing an owner's full task set.
type AllTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// BulkApplyRequest applies one action to a batch of task ids.
type BulkApplyRequest struct {
	UserID   string `json:"user_id"`
	Action   string `json:"action"`
	TaskIDs  []uint `json:"task_ids"`
	Priority string `json:"priority,omitempty"`
}

// BulkApplyResponse reports how many tasks the batch touched.
type BulkApplyResponse struct {
	Affected int `json:"affected"`
}

// StatisticsRequest is the request for an owner's aggregate counts.
type StatisticsRequest struct {
	UserID string `json:"user_id"`
}

// StatisticsResponse holds the aggregate counts for one owner.
type StatisticsResponse struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Overdue   int64 `json:"overdue"`
}

// TaskResponse is the full wire shape of one task.
type TaskResponse struct {
	ID          uint       `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskPort defines the interface driving adapters use to reach the task
// module across the service container.
type TaskPort interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error)
	GetTask(ctx context.Context, userID string, taskID uint) (*TaskResponse, error)
	ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)
	AllTasks(ctx context.Context, userID string) ([]TaskResponse, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error)
	DeleteTask(ctx context.Context, userID string, taskID uint) error
	ToggleComplete(ctx context.Context, userID string, taskID uint, completed bool) (*TaskResponse, error)
	BulkApply(ctx context.Context, req *BulkApplyRequest) (int, error)
	Statistics(ctx context.Context, userID string) (*StatisticsResponse, error)
}
