package transfer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/task-manager/events"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
)

// taskClient is the slice of the task services the transfer module
// consumes. task.TaskPort satisfies it.
type taskClient interface {
	AllTasks(ctx context.Context, userID string) ([]task.TaskResponse, error)
	CreateTask(ctx context.Context, req *task.CreateTaskRequest) (*task.TaskResponse, error)
}

// exportTasks handles the export-tasks service request. The file carries
// the owner's full task set, newest first.
func (m *TransferModule) exportTasks(ctx context.Context, req ExportRequest, _ *mono.Msg) (ExportResponse, error) {
	if req.UserID == "" {
		return ExportResponse{}, fmt.Errorf("user_id is required")
	}

	format := strings.ToLower(req.Format)
	if format != FormatCSV && format != FormatJSON {
		return ExportResponse{}, &ValidationError{Msg: "Format must be 'csv' or 'json'"}
	}

	tasks, err := m.tasks.AllTasks(ctx, req.UserID)
	if err != nil {
		return ExportResponse{}, fmt.Errorf("failed to load tasks for export: %w", err)
	}

	var content, mediaType string
	switch format {
	case FormatCSV:
		content, err = renderCSV(tasks)
		mediaType = "text/csv"
	case FormatJSON:
		content, err = renderJSON(tasks)
		mediaType = "application/json"
	}
	if err != nil {
		return ExportResponse{}, fmt.Errorf("failed to render %s export: %w", format, err)
	}

	return ExportResponse{
		Filename:  fmt.Sprintf("tasks_%s.%s", req.UserID, format),
		MediaType: mediaType,
		Content:   content,
	}, nil
}

// importTasks handles the import-tasks service request. Each parsed record
// is created through the task engine, so engine validation applies per
// record; a rejected record is reported in the error list and never blocks
// the rest of the file.
func (m *TransferModule) importTasks(ctx context.Context, req ImportRequest, _ *mono.Msg) (ImportResult, error) {
	if req.UserID == "" {
		return ImportResult{}, fmt.Errorf("user_id is required")
	}

	var (
		records []taskRecord
		errs    []string
	)
	switch strings.ToLower(req.Format) {
	case FormatCSV:
		records, errs = parseCSV(req.Content)
	case FormatJSON:
		records, errs = parseJSON(req.Content)
	default:
		return ImportResult{}, &ValidationError{Msg: "Format must be 'csv' or 'json'"}
	}

	imported := 0
	for _, rec := range records {
		completed := rec.Completed
		create := task.CreateTaskRequest{
			UserID:      req.UserID,
			Title:       rec.Title,
			Description: rec.Description,
			Priority:    rec.Priority,
			DueDate:     rec.DueDate,
			Tags:        rec.Tags,
			Completed:   &completed,
		}
		if _, err := m.tasks.CreateTask(ctx, &create); err != nil {
			errs = append(errs, fmt.Sprintf("Error importing task '%s': %v", rec.Title, err))
			continue
		}
		imported++
	}

	if m.eventBus != nil {
		event := events.TasksImportedEvent{
			UserID:     req.UserID,
			Imported:   imported,
			Failed:     len(errs),
			FinishedAt: time.Now().UTC(),
		}
		if err := events.TasksImportedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[transfer] Failed to publish TasksImported event: %v", err)
		}
	}

	return ImportResult{
		Imported:   imported,
		Errors:     len(errs),
		ErrorsList: errs,
	}, nil
}
