package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityEntry is one recorded task event.
type ActivityEntry struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// maxEntries bounds the in-memory activity log. Older entries are dropped.
const maxEntries = 1000

// NotificationModule records task activity from domain events. It is a
// driven adapter: no other module calls into it, it only consumes.
type NotificationModule struct {
	mu      sync.RWMutex
	entries []ActivityEntry
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.HealthCheckableModule = (*NotificationModule)(nil)

func NewModule() *NotificationModule {
	return &NotificationModule{
		entries: make([]ActivityEntry, 0),
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TasksImportedV1, m.handleTasksImported, m); err != nil {
		return fmt.Errorf("failed to register TasksImported consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: TaskCreated, TaskCompleted, TaskDeleted, TasksImported")
	return nil
}

func (m *NotificationModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record("task_created", event.UserID,
		fmt.Sprintf("Task %d '%s' created with %s priority", event.TaskID, event.Title, event.Priority))
	return nil
}

func (m *NotificationModule) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	m.record("task_completed", event.UserID,
		fmt.Sprintf("Task %d '%s' completed", event.TaskID, event.Title))
	return nil
}

func (m *NotificationModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record("task_deleted", event.UserID, fmt.Sprintf("Task %d deleted", event.TaskID))
	return nil
}

func (m *NotificationModule) handleTasksImported(_ context.Context, event events.TasksImportedEvent, _ *mono.Msg) error {
	m.record("tasks_imported", event.UserID,
		fmt.Sprintf("Import finished: %d tasks imported, %d failed", event.Imported, event.Failed))
	return nil
}

func (m *NotificationModule) record(kind, userID, message string) {
	log.Printf("[notification] %s", message)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, ActivityEntry{
		Kind:      kind,
		UserID:    userID,
		Message:   message,
		Timestamp: time.Now(),
	})
	if len(m.entries) > maxEntries {
		m.entries = m.entries[len(m.entries)-maxEntries:]
	}
}

// Recent returns up to n entries, newest first.
func (m *NotificationModule) Recent(n int) []ActivityEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]ActivityEntry, 0, n)
	for i := len(m.entries) - 1; i >= len(m.entries)-n; i-- {
		out = append(out, m.entries[i])
	}
	return out
}

func (m *NotificationModule) Start(_ context.Context) error {
	log.Println("[notification] Module started, listening for task events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	log.Println("[notification] Module stopped")
	return nil
}

func (m *NotificationModule) Health(_ context.Context) mono.HealthStatus {
	m.mu.RLock()
	recorded := len(m.entries)
	m.mu.RUnlock()

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"entries_recorded": recorded,
		},
	}
}
