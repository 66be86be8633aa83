package task

import (
	"context"
	"encoding/json"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps the task module's ServiceContainer for type-safe
// cross-module calls. It implements TaskPort.
//
// Call errors are returned as the service produced them. The engine's
// validation and not-found messages are part of its contract, so the
// adapter must not prefix them.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates an adapter for the task services. container is the
// task module's container received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// CreateTask creates a new task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "create-task", json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTask retrieves one task via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, userID string, taskID uint) (*TaskResponse, error) {
	req := GetTaskRequest{UserID: userID, TaskID: taskID}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTasks runs a filtered, sorted, paginated query via the list-tasks
// service.
func (a *taskAdapter) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-tasks", json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AllTasks loads the owner's full task set via the all-tasks service.
func (a *taskAdapter) AllTasks(ctx context.Context, userID string) ([]TaskResponse, error) {
	req := AllTasksRequest{UserID: userID}
	var resp AllTasksResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "all-tasks", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// UpdateTask applies a partial update via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "update-task", json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteTask deletes one task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, userID string, taskID uint) error {
	req := DeleteTaskRequest{UserID: userID, TaskID: taskID}
	var resp DeleteTaskResponse
	return helper.CallRequestReplyService(
		ctx, a.container, "delete-task", json.Marshal, json.Unmarshal, &req, &resp,
	)
}

// ToggleComplete sets the completion flag via the toggle-complete service.
func (a *taskAdapter) ToggleComplete(ctx context.Context, userID string, taskID uint, completed bool) (*TaskResponse, error) {
	req := ToggleCompleteRequest{UserID: userID, TaskID: taskID, Completed: completed}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "toggle-complete", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BulkApply runs an all-or-nothing batch action via the bulk-apply service.
func (a *taskAdapter) BulkApply(ctx context.Context, req *BulkApplyRequest) (int, error) {
	var resp BulkApplyResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "bulk-apply", json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return 0, err
	}
	return resp.Affected, nil
}

// Statistics fetches the owner's aggregate counts via the get-statistics
// service.
func (a *taskAdapter) Statistics(ctx context.Context, userID string) (*StatisticsResponse, error) {
	req := StatisticsRequest{UserID: userID}
	var resp StatisticsResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-statistics", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}
