package transfer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/task-manager/modules/task"
)

// csvColumns is the export column set. Imports read the same columns and
// ignore id, user_id, created_at, and updated_at, so an exported file can
// be fed straight back in.
var csvColumns = []string{
	"id",
	"user_id",
	"title",
	"description",
	"priority",
	"due_date",
	"tags",
	"completed",
	"created_at",
	"updated_at",
}

// renderCSV renders tasks as CSV. Timestamps are RFC 3339, booleans are
// lowercase, tags are comma-joined, and absent values are empty strings.
// Fields are quoted only when they need it.
func renderCSV(tasks []task.TaskResponse) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvColumns); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.UserID,
			t.Title,
			t.Description,
			t.Priority,
			due,
			strings.Join(t.Tags, ","),
			strconv.FormatBool(t.Completed),
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.String(), nil
}

// exportedTask is the JSON export shape of one task. Timestamps are
// formatted as RFC 3339 strings so both export formats carry identical
// values, and due_date is null when the task has none.
type exportedTask struct {
	ID          uint     `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	DueDate     *string  `json:"due_date"`
	Tags        []string `json:"tags"`
	Completed   bool     `json:"completed"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// renderJSON renders tasks as a two-space indented JSON array. Zero tasks
// render as an empty array, never null.
func renderJSON(tasks []task.TaskResponse) (string, error) {
	items := make([]exportedTask, 0, len(tasks))
	for _, t := range tasks {
		var due *string
		if t.DueDate != nil {
			s := t.DueDate.Format(time.RFC3339)
			due = &s
		}
		tags := t.Tags
		if tags == nil {
			tags = []string{}
		}
		items = append(items, exportedTask{
			ID:          t.ID,
			UserID:      t.UserID,
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			DueDate:     due,
			Tags:        tags,
			Completed:   t.Completed,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
			UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON export: %w", err)
	}
	return string(data), nil
}
