package task

import (
	"errors"
	"testing"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&domain.Task{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// mustCreate inserts a task row or fails the test.
func mustCreate(t *testing.T, repo *Repository, task *domain.Task) *domain.Task {
	t.Helper()
	if err := repo.Create(task); err != nil {
		t.Fatalf("failed to create task %q: %v", task.Title, err)
	}
	return task
}

func dueOn(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestRepository_CreateAndFind(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	owner := uuid.New().String()

	created := mustCreate(t, repo, &domain.Task{
		UserID:   owner,
		Title:    "Write report",
		Priority: domain.PriorityMedium,
		Tags:     domain.Tags{"work"},
	})

	if created.ID == 0 {
		t.Fatal("expected store-assigned id, got 0")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set on create")
	}

	t.Run("own task resolves", func(t *testing.T) {
		found, err := repo.FindByID(owner, created.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found.Title != "Write report" {
			t.Errorf("expected title %q, got %q", "Write report", found.Title)
		}
		if !found.Tags.Contains("work") {
			t.Errorf("expected tags to contain %q, got %v", "work", found.Tags)
		}
	})

	t.Run("foreign owner gets not found", func(t *testing.T) {
		_, err := repo.FindByID(uuid.New().String(), created.ID)
		if !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound, got %v", err)
		}
	})

	t.Run("missing id gets not found", func(t *testing.T) {
		_, err := repo.FindByID(owner, 999999)
		if !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound, got %v", err)
		}
	})
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	owner := uuid.New().String()
	other := uuid.New().String()

	task := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Disposable", Priority: domain.PriorityLow})

	t.Run("foreign owner cannot delete", func(t *testing.T) {
		if err := repo.Delete(other, task.ID); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound, got %v", err)
		}
		if _, err := repo.FindByID(owner, task.ID); err != nil {
			t.Errorf("task should still exist after foreign delete attempt: %v", err)
		}
	})

	t.Run("owner deletes hard", func(t *testing.T) {
		if err := repo.Delete(owner, task.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.FindByID(owner, task.ID); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound after delete, got %v", err)
		}
	})

	t.Run("second delete reports not found", func(t *testing.T) {
		if err := repo.Delete(owner, task.ID); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound, got %v", err)
		}
	})
}

func TestRepository_List_Filters(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	owner := uuid.New().String()
	other := uuid.New().String()

	mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Ship the release", Description: "cut and tag", Priority: domain.PriorityHigh, Tags: domain.Tags{"work", "urgent"}})
	mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Buy groceries", Priority: domain.PriorityLow, Completed: true, Tags: domain.Tags{"home"}})
	mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Plan sprint", Description: "release planning", Priority: domain.PriorityHigh, DueDate: dueOn(2030, 6, 15), Tags: domain.Tags{"work"}})
	mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Water plants", Priority: domain.PriorityMedium})
	mustCreate(t, repo, &domain.Task{UserID: other, Title: "Ship the release", Priority: domain.PriorityHigh, Tags: domain.Tags{"work"}})

	base := ListQuery{Sort: "created", SortDirection: "desc", Page: 1, Limit: 100}

	tests := []struct {
		name      string
		mutate    func(q *ListQuery)
		wantTotal int64
	}{
		{"no filters sees only own tasks", func(q *ListQuery) {}, 4},
		{"status pending", func(q *ListQuery) { q.Status = "pending" }, 3},
		{"status completed", func(q *ListQuery) { q.Status = "completed" }, 1},
		{"status all", func(q *ListQuery) { q.Status = "all" }, 4},
		{"priority high", func(q *ListQuery) { q.Priority = "high" }, 2},
		{"search matches title case-insensitively", func(q *ListQuery) { q.Search = "SHIP" }, 1},
		{"search matches description too", func(q *ListQuery) { q.Search = "release" }, 2},
		{"search term is trimmed", func(q *ListQuery) { q.Search = "  groceries  " }, 1},
		{"single tag", func(q *ListQuery) { q.Tags = []string{"home"} }, 1},
		{"tags match any, not all", func(q *ListQuery) { q.Tags = []string{"home", "urgent"} }, 2},
		{"due date exact match", func(q *ListQuery) { q.DueDate = "2030-06-15" }, 1},
		{"malformed due date is ignored", func(q *ListQuery) { q.DueDate = "not-a-date" }, 4},
		{"filters combine conjunctively", func(q *ListQuery) { q.Status = "pending"; q.Priority = "high"; q.Tags = []string{"work"} }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := base
			tt.mutate(&q)
			tasks, total, err := repo.List(owner, q)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("expected total %d, got %d", tt.wantTotal, total)
			}
			if int64(len(tasks)) != tt.wantTotal {
				t.Errorf("expected %d tasks, got %d", tt.wantTotal, len(tasks))
			}
			for _, task := range tasks {
				if task.UserID != owner {
					t.Errorf("task %d leaked from owner %s", task.ID, task.UserID)
				}
			}
		})
	}
}

func TestRepository_List_PrioritySort(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	owner := uuid.New().String()

	for _, p := range []domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow, domain.PriorityHigh} {
		mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Task " + string(p), Priority: p})
	}

	t.Run("desc puts highest priority first", func(t *testing.T) {
		tasks, _, err := repo.List(owner, ListQuery{Sort: "priority", SortDirection: "desc", Page: 1, Limit: 10})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		want := []domain.Priority{domain.PriorityHigh, domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow}
		for i, task := range tasks {
			if task.Priority != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], task.Priority)
			}
		}
	})

	t.Run("asc puts lowest priority first", func(t *testing.T) {
		tasks, _, err := repo.List(owner, ListQuery{Sort: "priority", SortDirection: "asc", Page: 1, Limit: 10})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		want := []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityHigh}
		for i, task := range tasks {
			if task.Priority != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], task.Priority)
			}
		}
	})
}

func TestRepository_List_DueDateSortNullsLast(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	owner := uuid.New().String()

	soon := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Soon", Priority: domain.PriorityMedium, DueDate: dueOn(2030, 1, 10)})
	later := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Later", Priority: domain.PriorityMedium, DueDate: dueOn(2030, 3, 10)})
	undated := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Whenever", Priority: domain.PriorityMedium})

	assertOrder := func(t *testing.T, direction string, want []uint) {
		t.Helper()
		tasks, _, err := repo.List(owner, ListQuery{Sort: "due_date", SortDirection: direction, Page: 1, Limit: 10})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		for i, task := range tasks {
			if task.ID != want[i] {
				t.Errorf("%s position %d: expected id %d, got %d", direction, i, want[i], task.ID)
			}
		}
	}

	t.Run("asc keeps undated last", func(t *testing.T) {
		assertOrder(t, "asc", []uint{soon.ID, later.ID, undated.ID})
	})

	t.Run("desc keeps undated last", func(t *testing.T) {
		assertOrder(t, "desc", []uint{later.ID, soon.ID, undated.ID})
	})
}

func TestRepository_List_DefaultSortNewestFirst(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	owner := uuid.New().String()

	first := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "First", Priority: domain.PriorityMedium})
	second := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Second", Priority: domain.PriorityMedium})
	third := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Third", Priority: domain.PriorityMedium})

	tasks, _, err := repo.List(owner, ListQuery{Sort: "created", SortDirection: "desc", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []uint{third.ID, second.ID, first.ID}
	for i, task := range tasks {
		if task.ID != want[i] {
			t.Errorf("position %d: expected id %d, got %d", i, want[i], task.ID)
		}
	}
}

func TestRepository_List_Pagination(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	owner := uuid.New().String()

	for i := 0; i < 4; i++ {
		mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Task " + string(rune('A'+i)), Priority: domain.PriorityMedium})
	}

	pageOne, total, err := repo.List(owner, ListQuery{Sort: "created", SortDirection: "desc", Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List() page 1 error = %v", err)
	}
	pageTwo, totalTwo, err := repo.List(owner, ListQuery{Sort: "created", SortDirection: "desc", Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List() page 2 error = %v", err)
	}

	if total != 4 || totalTwo != 4 {
		t.Errorf("expected total 4 on both pages, got %d and %d", total, totalTwo)
	}
	if len(pageOne) != 2 || len(pageTwo) != 2 {
		t.Fatalf("expected 2 tasks per page, got %d and %d", len(pageOne), len(pageTwo))
	}

	seen := map[uint]bool{}
	for _, task := range append(pageOne, pageTwo...) {
		if seen[task.ID] {
			t.Errorf("task %d appeared on both pages", task.ID)
		}
		seen[task.ID] = true
	}

	empty, totalThree, err := repo.List(owner, ListQuery{Sort: "created", SortDirection: "desc", Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("List() page 3 error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty page past the end, got %d tasks", len(empty))
	}
	if totalThree != 4 {
		t.Errorf("total should not depend on the page, got %d", totalThree)
	}
}

func TestRepository_Stats(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	owner := uuid.New().String()

	t.Run("empty owner gets zeros", func(t *testing.T) {
		stats, err := repo.Stats(owner, time.Now().UTC())
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.Total != 0 || stats.Completed != 0 || stats.Pending != 0 || stats.Overdue != 0 {
			t.Errorf("expected all zeros, got %+v", stats)
		}
	})

	past := time.Now().UTC().Add(-48 * time.Hour)
	mustCreate(t, repo, &domain.Task{UserID: owner, Title: "One", Priority: domain.PriorityHigh})
	mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Two", Priority: domain.PriorityMedium, Completed: true})
	mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Three", Priority: domain.PriorityLow, DueDate: &past})
	mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Four", Priority: domain.PriorityHigh, DueDate: dueOn(2031, 1, 1)})

	t.Run("counts split by completion and overdue", func(t *testing.T) {
		stats, err := repo.Stats(owner, time.Now().UTC())
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.Total != 4 {
			t.Errorf("expected total 4, got %d", stats.Total)
		}
		if stats.Completed != 1 {
			t.Errorf("expected completed 1, got %d", stats.Completed)
		}
		if stats.Pending != 3 {
			t.Errorf("expected pending 3, got %d", stats.Pending)
		}
		if stats.Overdue != 1 {
			t.Errorf("expected overdue 1, got %d", stats.Overdue)
		}
	})

	t.Run("completed tasks are never overdue", func(t *testing.T) {
		done := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Done late", Priority: domain.PriorityLow, DueDate: &past, Completed: true})
		stats, err := repo.Stats(owner, time.Now().UTC())
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.Overdue != 1 {
			t.Errorf("expected overdue to stay 1, got %d", stats.Overdue)
		}
		if err := repo.Delete(owner, done.ID); err != nil {
			t.Fatalf("cleanup delete failed: %v", err)
		}
	})
}

func TestRepository_BulkApply(t *testing.T) {
	t.Run("delete removes the whole batch", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		owner := uuid.New().String()
		a := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "A", Priority: domain.PriorityLow})
		b := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "B", Priority: domain.PriorityLow})

		affected, err := repo.BulkApply(owner, BulkActionDelete, []uint{a.ID, b.ID}, "")
		if err != nil {
			t.Fatalf("BulkApply() error = %v", err)
		}
		if affected != 2 {
			t.Errorf("expected 2 affected, got %d", affected)
		}
		for _, id := range []uint{a.ID, b.ID} {
			if _, err := repo.FindByID(owner, id); !errors.Is(err, ErrTaskNotFound) {
				t.Errorf("task %d should be gone, got %v", id, err)
			}
		}
	})

	t.Run("one bad id aborts the whole batch", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		owner := uuid.New().String()
		valid := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Survivor", Priority: domain.PriorityHigh})

		_, err := repo.BulkApply(owner, BulkActionDelete, []uint{valid.ID, 999999}, "")
		if err == nil {
			t.Fatal("expected error for unknown id, got nil")
		}
		if !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("expected a not-found error, got %v", err)
		}
		var miss *BulkNotFoundError
		if !errors.As(err, &miss) || miss.TaskID != 999999 {
			t.Errorf("expected BulkNotFoundError for id 999999, got %v", err)
		}
		if want := "Task 999999 not found or doesn't belong to user"; err.Error() != want {
			t.Errorf("expected message %q, got %q", want, err.Error())
		}

		if _, err := repo.FindByID(owner, valid.ID); err != nil {
			t.Errorf("valid task must survive the failed batch: %v", err)
		}
	})

	t.Run("foreign-owned id aborts the whole batch", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		owner := uuid.New().String()
		other := uuid.New().String()
		mine := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Mine", Priority: domain.PriorityLow})
		theirs := mustCreate(t, repo, &domain.Task{UserID: other, Title: "Theirs", Priority: domain.PriorityLow})

		_, err := repo.BulkApply(owner, BulkActionComplete, []uint{mine.ID, theirs.ID}, "")
		if !errors.Is(err, ErrTaskNotFound) {
			t.Fatalf("expected not-found for foreign id, got %v", err)
		}

		reloaded, err := repo.FindByID(owner, mine.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if reloaded.Completed {
			t.Error("failed batch must not complete any task")
		}
	})

	t.Run("complete and pending flip the flag", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		owner := uuid.New().String()
		a := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "A", Priority: domain.PriorityLow})
		b := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "B", Priority: domain.PriorityLow})
		ids := []uint{a.ID, b.ID}

		if _, err := repo.BulkApply(owner, BulkActionComplete, ids, ""); err != nil {
			t.Fatalf("BulkApply(complete) error = %v", err)
		}
		for _, id := range ids {
			task, _ := repo.FindByID(owner, id)
			if !task.Completed {
				t.Errorf("task %d should be completed", id)
			}
		}

		if _, err := repo.BulkApply(owner, BulkActionPending, ids, ""); err != nil {
			t.Fatalf("BulkApply(pending) error = %v", err)
		}
		for _, id := range ids {
			task, _ := repo.FindByID(owner, id)
			if task.Completed {
				t.Errorf("task %d should be pending again", id)
			}
		}
	})

	t.Run("priority rewrites the batch", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		owner := uuid.New().String()
		a := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "A", Priority: domain.PriorityLow})
		b := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "B", Priority: domain.PriorityMedium})

		affected, err := repo.BulkApply(owner, BulkActionPriority, []uint{a.ID, b.ID}, domain.PriorityHigh)
		if err != nil {
			t.Fatalf("BulkApply(priority) error = %v", err)
		}
		if affected != 2 {
			t.Errorf("expected 2 affected, got %d", affected)
		}
		for _, id := range []uint{a.ID, b.ID} {
			task, _ := repo.FindByID(owner, id)
			if task.Priority != domain.PriorityHigh {
				t.Errorf("task %d: expected priority high, got %s", id, task.Priority)
			}
		}
	})
}

func TestRepository_All(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	owner := uuid.New().String()
	other := uuid.New().String()

	first := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "First", Priority: domain.PriorityLow})
	second := mustCreate(t, repo, &domain.Task{UserID: owner, Title: "Second", Priority: domain.PriorityLow})
	mustCreate(t, repo, &domain.Task{UserID: other, Title: "Foreign", Priority: domain.PriorityLow})

	tasks, err := repo.All(owner)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Errorf("expected newest first [%d %d], got [%d %d]", second.ID, first.ID, tasks[0].ID, tasks[1].ID)
	}
}
