package api

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	taskdomain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/task"
	"github.com/example/task-manager/modules/transfer"
	"github.com/gofiber/fiber/v2"
)

// maxImportSize caps uploaded import files at 10MB.
const maxImportSize = 10 * 1024 * 1024

// Query parameter allow-lists. Query values are folded to lowercase before
// the check, request body enums stay case sensitive.
var (
	validStatuses    = map[string]bool{"all": true, "pending": true, "completed": true}
	validPriorities  = map[string]bool{"low": true, "medium": true, "high": true}
	validSorts       = map[string]bool{"created": true, "title": true, "updated": true, "priority": true, "due_date": true}
	validDirections  = map[string]bool{"asc": true, "desc": true}
	validBulkActions = map[string]bool{"delete": true, "complete": true, "pending": true, "priority": true}
	validFormats     = map[string]bool{"csv": true, "json": true}
)

// parseTaskID reads the task_id path segment. Zero and non-numeric values
// are rejected.
func parseTaskID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("task_id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseBodyDueDate converts an optional due date string. An empty string
// counts as absent.
func parseBodyDueDate(raw *string) (*time.Time, string) {
	if raw == nil || *raw == "" {
		return nil, ""
	}
	parsed, err := taskdomain.ParseDueDate(*raw)
	if err != nil {
		return nil, fmt.Sprintf("Invalid due_date format '%s' (expected ISO 8601)", *raw)
	}
	return &parsed, ""
}

// CreateTask handles task creation. Validation beyond due date parsing lives
// in the task engine, the handler only maps its errors.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var body CreateTaskBody
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "Invalid request body")
	}

	due, msg := parseBodyDueDate(body.DueDate)
	if msg != "" {
		return validationError(c, msg)
	}

	created, err := h.tasks.CreateTask(c.UserContext(), &task.CreateTaskRequest{
		UserID:      c.Params("user_id"),
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
		DueDate:     due,
		Tags:        body.Tags,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListTasks handles the filtered, sorted, paginated task listing.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		return validationError(c, "Page must be greater than 0")
	}
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		return validationError(c, "Limit must be between 1 and 100")
	}

	status := strings.ToLower(c.Query("status"))
	if status != "" && !validStatuses[status] {
		return validationError(c, "Status must be one of: all, pending, completed")
	}
	priority := strings.ToLower(c.Query("priority"))
	if priority != "" && !validPriorities[priority] {
		return validationError(c, "Priority must be one of: low, medium, high")
	}
	sort := strings.ToLower(c.Query("sort"))
	if sort != "" && !validSorts[sort] {
		return validationError(c, "Sort must be one of: created, title, updated, priority, due_date")
	}
	direction := strings.ToLower(c.Query("sort_direction"))
	if direction != "" && !validDirections[direction] {
		return validationError(c, "Sort direction must be one of: asc, desc")
	}

	resp, err := h.tasks.ListTasks(c.UserContext(), &task.ListTasksRequest{
		UserID:        c.Params("user_id"),
		Status:        status,
		Priority:      priority,
		DueDate:       c.Query("due_date"),
		Tags:          c.Query("tags"),
		Search:        c.Query("search"),
		Sort:          sort,
		SortDirection: direction,
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(ListResponse{
		Data: resp.Tasks,
		Meta: ListMeta{
			Total:      resp.Total,
			Page:       page,
			Limit:      limit,
			TotalPages: (resp.Total + int64(limit) - 1) / int64(limit),
		},
		Success: true,
	})
}

// GetTask handles fetching a single task.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	taskID, ok := parseTaskID(c)
	if !ok {
		return validationError(c, "Task ID must be a positive integer")
	}

	t, err := h.tasks.GetTask(c.UserContext(), c.Params("user_id"), taskID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(t)
}

// UpdateTask handles a partial task update.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	taskID, ok := parseTaskID(c)
	if !ok {
		return validationError(c, "Task ID must be a positive integer")
	}

	var body UpdateTaskBody
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "Invalid request body")
	}

	due, msg := parseBodyDueDate(body.DueDate)
	if msg != "" {
		return validationError(c, msg)
	}

	updated, err := h.tasks.UpdateTask(c.UserContext(), &task.UpdateTaskRequest{
		UserID:      c.Params("user_id"),
		TaskID:      taskID,
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
		DueDate:     due,
		Tags:        body.Tags,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(updated)
}

// DeleteTask handles task deletion.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	taskID, ok := parseTaskID(c)
	if !ok {
		return validationError(c, "Task ID must be a positive integer")
	}

	if err := h.tasks.DeleteTask(c.UserContext(), c.Params("user_id"), taskID); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(SuccessResponse{
		Success: true,
		Message: "Task deleted successfully",
	})
}

// ToggleComplete handles the explicit completion toggle.
func (h *Handlers) ToggleComplete(c *fiber.Ctx) error {
	taskID, ok := parseTaskID(c)
	if !ok {
		return validationError(c, "Task ID must be a positive integer")
	}

	var body ToggleBody
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "Invalid request body")
	}
	if body.Completed == nil {
		return validationError(c, "Completed is required")
	}

	t, err := h.tasks.ToggleComplete(c.UserContext(), c.Params("user_id"), taskID, *body.Completed)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(t)
}

// Statistics handles the per-user task statistics summary.
func (h *Handlers) Statistics(c *fiber.Ctx) error {
	stats, err := h.tasks.Statistics(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(DataResponse{Success: true, Data: stats})
}

// BulkApply handles all-or-nothing bulk operations. Shape checks happen
// here, per-task checks happen inside the engine transaction.
func (h *Handlers) BulkApply(c *fiber.Ctx) error {
	var body BulkBody
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "Invalid request body")
	}

	if !validBulkActions[body.Action] {
		return validationError(c, "Action must be one of: delete, complete, pending, priority")
	}
	if len(body.TaskIDs) == 0 {
		return validationError(c, "At least one task ID is required")
	}
	if len(body.TaskIDs) > 100 {
		return validationError(c, "Maximum 100 task IDs allowed")
	}
	ids := make([]uint, len(body.TaskIDs))
	for i, id := range body.TaskIDs {
		if id < 1 {
			return validationError(c, "Task IDs must be positive integers")
		}
		ids[i] = uint(id)
	}
	if body.Action == "priority" && body.Priority == "" {
		return validationError(c, "Priority is required for priority action")
	}

	affected, err := h.tasks.BulkApply(c.UserContext(), &task.BulkApplyRequest{
		UserID:   c.Params("user_id"),
		Action:   body.Action,
		TaskIDs:  ids,
		Priority: body.Priority,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(DataResponse{Success: true, Data: BulkData{Affected: affected}})
}

// ExportTasks streams the user's full task set as a downloadable file.
func (h *Handlers) ExportTasks(c *fiber.Ctx) error {
	format := strings.ToLower(c.Query("format"))
	if !validFormats[format] {
		return validationError(c, "Format must be 'csv' or 'json'")
	}

	result, err := h.transfer.Export(c.UserContext(), c.Params("user_id"), format)
	if err != nil {
		return mapServiceError(c, err)
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", result.Filename))
	c.Set(fiber.HeaderContentType, result.MediaType)
	return c.SendString(result.Content)
}

// ImportTasks accepts a CSV or JSON upload and reports per-record results.
func (h *Handlers) ImportTasks(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return validationError(c, "File is required")
	}

	if fileHeader.Size > maxImportSize {
		return validationError(c, "File size exceeds 10MB limit")
	}

	f, err := fileHeader.Open()
	if err != nil {
		log.Printf("[api] Failed to open upload: %v", err)
		return internalError(c)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxImportSize+1))
	if err != nil {
		log.Printf("[api] Failed to read upload: %v", err)
		return internalError(c)
	}
	if len(raw) > maxImportSize {
		return validationError(c, "File size exceeds 10MB limit")
	}
	if !utf8.Valid(raw) {
		return validationError(c, "File must be UTF-8 encoded text")
	}

	var format string
	name := strings.ToLower(fileHeader.Filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		format = transfer.FormatCSV
	case strings.HasSuffix(name, ".json"):
		format = transfer.FormatJSON
	default:
		return validationError(c, "File must be CSV or JSON format (.csv or .json)")
	}

	result, err := h.transfer.Import(c.UserContext(), c.Params("user_id"), format, string(raw))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(DataResponse{Success: true, Data: result})
}
