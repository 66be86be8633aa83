package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a new task is created.
type TaskCreatedEvent struct {
	TaskID    uint      `json:"task_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// TaskCompletedEvent is emitted when a task is marked complete.
type TaskCompletedEvent struct {
	TaskID      uint      `json:"task_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completed_at"`
}

// TaskCompletedV1 is the typed event definition for task completion.
// Subject: events.task.v1.task-completed
var TaskCompletedV1 = helper.EventDefinition[TaskCompletedEvent](
	"task", "TaskCompleted", "v1",
)

// TaskDeletedEvent is emitted when a task is deleted, either singly or as
// part of a bulk delete.
type TaskDeletedEvent struct {
	TaskID    uint      `json:"task_id"`
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.task.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"task", "TaskDeleted", "v1",
)

// TasksImportedEvent is emitted after a file import finishes.
type TasksImportedEvent struct {
	UserID     string    `json:"user_id"`
	Imported   int       `json:"imported"`
	Failed     int       `json:"failed"`
	FinishedAt time.Time `json:"finished_at"`
}

// TasksImportedV1 is the typed event definition for completed imports.
// Emitted by the transfer module, not the task module.
// Subject: events.transfer.v1.tasks-imported
var TasksImportedV1 = helper.EventDefinition[TasksImportedEvent](
	"transfer", "TasksImported", "v1",
)
