package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"gorm.io/gorm"
)

// Repository provides owner-scoped access to the tasks table. Every method
// takes the owner id explicitly; no row is ever visible across owners.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListQuery carries pre-validated filter, sort, and pagination parameters
// for List. Enum fields and ranges are checked at the boundary; DueDate is
// the raw filter string and is silently ignored when it does not parse.
type ListQuery struct {
	Status        string
	Priority      string
	DueDate       string
	Tags          []string
	Search        string
	Sort          string
	SortDirection string
	Page          int
	Limit         int
}

// Create inserts a new task row. GORM assigns ID and both timestamps.
func (r *Repository) Create(t *domain.Task) error {
	if err := r.db.Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID resolves the (task id, owner) pair. A miss returns
// ErrTaskNotFound whether the row is absent or owned by someone else.
func (r *Repository) FindByID(userID string, taskID uint) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.First(&t, "id = ? AND user_id = ?", taskID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// Save persists all fields of an already-loaded task and refreshes its
// UpdatedAt timestamp.
func (r *Repository) Save(t *domain.Task) error {
	if err := r.db.Save(t).Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// Delete hard-deletes the (task id, owner) pair.
func (r *Repository) Delete(userID string, taskID uint) error {
	result := r.db.Where("id = ? AND user_id = ?", taskID, userID).Delete(&domain.Task{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// List runs the owner-scoped filtered query and returns one page plus the
// total row count over the filtered set before pagination.
func (r *Repository) List(userID string, q ListQuery) ([]domain.Task, int64, error) {
	db := r.db.Model(&domain.Task{}).Where("user_id = ?", userID)

	switch q.Status {
	case "pending":
		db = db.Where("completed = ?", false)
	case "completed":
		db = db.Where("completed = ?", true)
	}

	if q.Priority != "" {
		db = db.Where("priority = ?", q.Priority)
	}

	if q.DueDate != "" {
		// Unparseable filter dates drop the filter, they are not an error.
		if due, err := domain.ParseDueDate(q.DueDate); err == nil {
			db = db.Where("due_date = ?", due)
		}
	}

	if len(q.Tags) > 0 {
		cond, args := tagsPredicate(q.Tags)
		db = db.Where(cond, args...)
	}

	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	offset := (q.Page - 1) * q.Limit
	var tasks []domain.Task
	err := db.Order(orderClause(q.Sort, q.SortDirection)).
		Order("id ASC").
		Offset(offset).
		Limit(q.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// tagsPredicate builds the single OR-group predicate matching rows whose
// JSON tag column contains any of the given tags.
func tagsPredicate(tags []string) (string, []any) {
	conds := make([]string, 0, len(tags))
	args := make([]any, 0, len(tags))
	for _, tag := range tags {
		conds = append(conds, "tags LIKE ?")
		args = append(args, `%"`+tag+`"%`)
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}

// orderClause maps a sort key and direction to an ORDER BY expression.
//
// Priority orders by rank (high=1, medium=2, low=3); direction "desc" means
// descending priority, i.e. highest first. Due-date sorting places rows
// without a due date last in both directions.
func orderClause(sort, direction string) string {
	dir := "ASC"
	if direction == "desc" {
		dir = "DESC"
	}
	switch sort {
	case "title":
		return "title " + dir
	case "updated":
		return "updated_at " + dir
	case "priority":
		rank := "CASE priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END"
		if direction == "desc" {
			return rank + " ASC"
		}
		return rank + " DESC"
	case "due_date":
		return "(due_date IS NULL) ASC, due_date " + dir
	default:
		return "created_at " + dir
	}
}

// All returns the full task set of one owner, newest first.
func (r *Repository) All(userID string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return tasks, nil
}

// Stats computes the owner's aggregate counts in a single statement so the
// numbers come from one consistent snapshot.
func (r *Repository) Stats(userID string, now time.Time) (StatisticsResponse, error) {
	var row struct {
		Total     int64
		Completed int64
		Overdue   int64
	}
	err := r.db.Model(&domain.Task{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed, "+
				"COALESCE(SUM(CASE WHEN NOT completed AND due_date IS NOT NULL AND due_date < ? THEN 1 ELSE 0 END), 0) AS overdue",
			now,
		).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return StatisticsResponse{}, fmt.Errorf("failed to compute statistics: %w", err)
	}
	return StatisticsResponse{
		Total:     row.Total,
		Completed: row.Completed,
		Pending:   row.Total - row.Completed,
		Overdue:   row.Overdue,
	}, nil
}

// BulkApply runs one action across a batch of task ids inside a single
// transaction, in two phases: resolve every (id, owner) pair first, then
// mutate. The first unresolvable id aborts the whole batch with
// BulkNotFoundError and the transaction rolls back, so a failed call leaves
// the store exactly as it was.
func (r *Repository) BulkApply(userID, action string, taskIDs []uint, priority domain.Priority) (int, error) {
	affected := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		tasks := make([]domain.Task, 0, len(taskIDs))
		for _, id := range taskIDs {
			var t domain.Task
			if err := tx.First(&t, "id = ? AND user_id = ?", id, userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &BulkNotFoundError{TaskID: id}
				}
				return fmt.Errorf("failed to resolve task %d: %w", id, err)
			}
			tasks = append(tasks, t)
		}

		for i := range tasks {
			t := &tasks[i]
			switch action {
			case BulkActionDelete:
				if err := tx.Delete(t).Error; err != nil {
					return fmt.Errorf("failed to delete task %d: %w", t.ID, err)
				}
			case BulkActionComplete:
				t.Completed = true
				if err := tx.Save(t).Error; err != nil {
					return fmt.Errorf("failed to update task %d: %w", t.ID, err)
				}
			case BulkActionPending:
				t.Completed = false
				if err := tx.Save(t).Error; err != nil {
					return fmt.Errorf("failed to update task %d: %w", t.ID, err)
				}
			case BulkActionPriority:
				t.Priority = priority
				if err := tx.Save(t).Error; err != nil {
					return fmt.Errorf("failed to update task %d: %w", t.ID, err)
				}
			default:
				return fmt.Errorf("unknown bulk action: %s", action)
			}
			affected++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
