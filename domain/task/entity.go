package task

import (
	"fmt"
	"time"
)

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank returns the sort rank of a priority: high=1, medium=2, low=3.
// Ascending rank order puts high-priority tasks first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is one of the three known priority levels.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Tags is an ordered list of task tags, persisted as a JSON text column.
type Tags []string

// Contains reports whether the tag list contains the given tag.
func (t Tags) Contains(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// Task is the core domain entity: one todo item owned by exactly one user.
type Task struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	UserID      string     `gorm:"size:36;not null;index" json:"user_id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"size:1000" json:"description"`
	Priority    Priority   `gorm:"size:10;not null;default:medium" json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        Tags       `gorm:"serializer:json;type:text" json:"tags"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// Overdue reports whether the task is past due and still pending at the
// given instant.
func (t *Task) Overdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// dueDateLayouts are the accepted ISO 8601 shapes, broadest first.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDueDate parses an ISO 8601 date or timestamp. Bare dates and naive
// timestamps are taken as UTC; the result is always normalized to UTC so
// stored values compare consistently.
func ParseDueDate(s string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO 8601 date: %q", s)
}
