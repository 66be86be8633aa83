package task

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
)

// validateTitle trims the title and checks the create/update constraints,
// returning the trimmed value.
func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", &ValidationError{Msg: "Title is required"}
	}
	if utf8.RuneCountInString(trimmed) > 200 {
		return "", &ValidationError{Msg: "Title must be 200 characters or less"}
	}
	return trimmed, nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > 1000 {
		return &ValidationError{Msg: "Description must be 1000 characters or less"}
	}
	return nil
}

func validatePriority(priority string) error {
	if !domain.Priority(priority).Valid() {
		return &ValidationError{Msg: "Priority must be one of: low, medium, high"}
	}
	return nil
}

// validateDueDate rejects due dates strictly earlier than now. This runs on
// every update that provides a due date, so a lapsed due date cannot be
// re-saved unchanged.
func validateDueDate(due, now time.Time) error {
	if due.Before(now) {
		return &ValidationError{Msg: "Due date cannot be in the past"}
	}
	return nil
}

func validateTags(tags []string) error {
	if len(tags) > 10 {
		return &ValidationError{Msg: "Maximum 10 tags allowed"}
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > 50 {
			return &ValidationError{Msg: fmt.Sprintf("Tag '%s' exceeds 50 characters", tag)}
		}
	}
	return nil
}

// splitTags splits a raw comma-separated tag filter, trimming entries and
// dropping empties.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// createTask handles the create-task service request.
func (m *TaskModule) createTask(_ context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	if req.UserID == "" {
		return TaskResponse{}, fmt.Errorf("user_id is required")
	}

	title, err := validateTitle(req.Title)
	if err != nil {
		return TaskResponse{}, err
	}
	if err := validateDescription(req.Description); err != nil {
		return TaskResponse{}, err
	}

	priority := req.Priority
	if priority == "" {
		priority = string(domain.PriorityMedium)
	}
	if err := validatePriority(priority); err != nil {
		return TaskResponse{}, err
	}

	if req.DueDate != nil {
		if err := validateDueDate(*req.DueDate, time.Now()); err != nil {
			return TaskResponse{}, err
		}
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	if err := validateTags(tags); err != nil {
		return TaskResponse{}, err
	}

	newTask := &domain.Task{
		UserID:      req.UserID,
		Title:       title,
		Description: req.Description,
		Priority:    domain.Priority(priority),
		DueDate:     req.DueDate,
		Tags:        tags,
		Completed:   req.Completed != nil && *req.Completed,
	}
	if err := m.repo.Create(newTask); err != nil {
		return TaskResponse{}, err
	}

	if m.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:    newTask.ID,
			UserID:    newTask.UserID,
			Title:     newTask.Title,
			Priority:  string(newTask.Priority),
			CreatedAt: newTask.CreatedAt,
		}
		if err := events.TaskCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskCreated event for task %d: %v", newTask.ID, err)
		}
	}

	return toTaskResponse(newTask), nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(_ context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.repo.FindByID(req.UserID, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(_ context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	q := ListQuery{
		Status:        req.Status,
		Priority:      req.Priority,
		DueDate:       req.DueDate,
		Tags:          splitTags(req.Tags),
		Search:        req.Search,
		Sort:          req.Sort,
		SortDirection: req.SortDirection,
		Page:          req.Page,
		Limit:         req.Limit,
	}
	if q.Sort == "" {
		q.Sort = "created"
	}
	if q.SortDirection == "" {
		q.SortDirection = "desc"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	tasks, total, err := m.repo.List(req.UserID, q)
	if err != nil {
		return ListTasksResponse{}, err
	}

	resp := ListTasksResponse{
		Tasks: make([]TaskResponse, 0, len(tasks)),
		Total: total,
	}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(&tasks[i]))
	}
	return resp, nil
}

// allTasks handles the all-tasks service request used by export.
func (m *TaskModule) allTasks(_ context.Context, req AllTasksRequest, _ *mono.Msg) (AllTasksResponse, error) {
	tasks, err := m.repo.All(req.UserID)
	if err != nil {
		return AllTasksResponse{}, err
	}
	resp := AllTasksResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(&tasks[i]))
	}
	return resp, nil
}

// updateTask handles the update-task service request. Only provided fields
// are validated and applied.
func (m *TaskModule) updateTask(_ context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.repo.FindByID(req.UserID, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}

	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return TaskResponse{}, err
		}
		t.Title = title
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return TaskResponse{}, err
		}
		t.Description = *req.Description
	}
	if req.Priority != nil {
		if err := validatePriority(*req.Priority); err != nil {
			return TaskResponse{}, err
		}
		t.Priority = domain.Priority(*req.Priority)
	}
	if req.DueDate != nil {
		if err := validateDueDate(*req.DueDate, time.Now()); err != nil {
			return TaskResponse{}, err
		}
		t.DueDate = req.DueDate
	}
	if req.Tags != nil {
		if err := validateTags(*req.Tags); err != nil {
			return TaskResponse{}, err
		}
		t.Tags = *req.Tags
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}

	if err := m.repo.Save(t); err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(_ context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.repo.Delete(req.UserID, req.TaskID); err != nil {
		return DeleteTaskResponse{Deleted: false}, err
	}

	if m.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    req.TaskID,
			UserID:    req.UserID,
			DeletedAt: time.Now(),
		}
		if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskDeleted event for task %d: %v", req.TaskID, err)
		}
	}

	return DeleteTaskResponse{Deleted: true}, nil
}

// toggleComplete handles the toggle-complete service request.
func (m *TaskModule) toggleComplete(_ context.Context, req ToggleCompleteRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.repo.FindByID(req.UserID, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}

	t.Completed = req.Completed
	if err := m.repo.Save(t); err != nil {
		return TaskResponse{}, err
	}

	if req.Completed && m.eventBus != nil {
		event := events.TaskCompletedEvent{
			TaskID:      t.ID,
			UserID:      t.UserID,
			Title:       t.Title,
			CompletedAt: time.Now(),
		}
		if err := events.TaskCompletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskCompleted event for task %d: %v", t.ID, err)
		}
	}

	return toTaskResponse(t), nil
}

// bulkApply handles the bulk-apply service request. The repository runs the
// batch all-or-nothing; a single bad id rolls the whole call back.
func (m *TaskModule) bulkApply(_ context.Context, req BulkApplyRequest, _ *mono.Msg) (BulkApplyResponse, error) {
	if req.Action == BulkActionPriority {
		if err := validatePriority(req.Priority); err != nil {
			return BulkApplyResponse{}, err
		}
	}

	affected, err := m.repo.BulkApply(req.UserID, req.Action, req.TaskIDs, domain.Priority(req.Priority))
	if err != nil {
		return BulkApplyResponse{}, err
	}

	if req.Action == BulkActionDelete && m.eventBus != nil {
		deletedAt := time.Now()
		for _, id := range req.TaskIDs {
			event := events.TaskDeletedEvent{
				TaskID:    id,
				UserID:    req.UserID,
				DeletedAt: deletedAt,
			}
			if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
				log.Printf("[task] Warning: failed to publish TaskDeleted event for task %d: %v", id, err)
			}
		}
	}

	return BulkApplyResponse{Affected: affected}, nil
}

// getStatistics handles the get-statistics service request.
func (m *TaskModule) getStatistics(_ context.Context, req StatisticsRequest, _ *mono.Msg) (StatisticsResponse, error) {
	return m.repo.Stats(req.UserID, time.Now().UTC())
}

// toTaskResponse converts a domain Task to its wire shape. Tags are always
// an array, never null.
func toTaskResponse(t *domain.Task) TaskResponse {
	tags := []string(t.Tags)
	if tags == nil {
		tags = []string{}
	}
	return TaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Tags:        tags,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
