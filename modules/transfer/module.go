package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-manager/events"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TransferModule moves task sets in and out of the system as CSV or JSON
// files. It owns no storage; every record flows through the task module's
// services.
type TransferModule struct {
	tasks    taskClient
	eventBus mono.EventBus
}

// Compile-time interface checks.
var _ mono.Module = (*TransferModule)(nil)
var _ mono.DependentModule = (*TransferModule)(nil)
var _ mono.ServiceProviderModule = (*TransferModule)(nil)
var _ mono.HealthCheckableModule = (*TransferModule)(nil)
var _ mono.EventEmitterModule = (*TransferModule)(nil)

// NewModule creates a new TransferModule.
func NewModule() *TransferModule {
	return &TransferModule{}
}

// Name returns the module name.
func (m *TransferModule) Name() string {
	return "transfer"
}

// Dependencies returns the list of module dependencies.
func (m *TransferModule) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *TransferModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "task" {
		m.tasks = task.NewTaskAdapter(container)
	}
}

// SetEventBus receives the event bus used to announce finished imports.
func (m *TransferModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *TransferModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TasksImportedV1.ToBase(),
	}
}

// RegisterServices registers the transfer request-reply services.
func (m *TransferModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "export-tasks", json.Unmarshal, json.Marshal, m.exportTasks,
	); err != nil {
		return fmt.Errorf("failed to register export-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "import-tasks", json.Unmarshal, json.Marshal, m.importTasks,
	); err != nil {
		return fmt.Errorf("failed to register import-tasks service: %w", err)
	}

	log.Printf("[transfer] Registered services: export-tasks, import-tasks")
	return nil
}

// Start verifies the task dependency was wired.
func (m *TransferModule) Start(_ context.Context) error {
	if m.tasks == nil {
		return fmt.Errorf("task dependency not set")
	}
	log.Println("[transfer] Module started successfully")
	return nil
}

// Stop is a no-op; the module holds no resources.
func (m *TransferModule) Stop(_ context.Context) error {
	return nil
}

// Health reports whether the task dependency is available.
func (m *TransferModule) Health(_ context.Context) mono.HealthStatus {
	if m.tasks == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "task dependency not set",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}
