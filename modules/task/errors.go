package task

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound is returned when a task id does not resolve under the
// requesting owner. The engine never distinguishes "wrong owner" from
// "does not exist".
var ErrTaskNotFound = errors.New("task not found")

// ValidationError reports a field-level constraint violation. Error() is
// the user-facing message the HTTP boundary surfaces verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// BulkNotFoundError identifies the first task id in a bulk batch that did
// not resolve under the requesting owner. The whole batch is rolled back
// when it occurs.
type BulkNotFoundError struct {
	TaskID uint
}

func (e *BulkNotFoundError) Error() string {
	return fmt.Sprintf("Task %d not found or doesn't belong to user", e.TaskID)
}

// Is makes errors.Is(err, ErrTaskNotFound) match bulk misses too.
func (e *BulkNotFoundError) Is(target error) bool {
	return target == ErrTaskNotFound
}
