package transfer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/example/task-manager/domain/task"
)

// taskRecord is one import record that passed validation, normalized and
// ready for creation.
type taskRecord struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Tags        []string
	Completed   bool
}

// parseCSV parses CSV import content. The first row is the header; data
// rows are numbered from 2 in error messages. Rows with fewer fields than
// the header treat the missing columns as absent. A malformed row aborts
// the scan but keeps everything parsed before it.
func parseCSV(content string) ([]taskRecord, []string) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, []string{fmt.Sprintf("CSV parsing error: %v", err)}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var (
		records []taskRecord
		errs    []string
	)
	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("CSV parsing error: %v", err))
			break
		}

		rec := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}

		parsed, err := validateRecord(rec)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		records = append(records, parsed)
	}
	return records, errs
}

// parseJSON parses JSON import content, which must be an array of task
// objects. Items are numbered from 1 in error messages.
func parseJSON(content string) ([]taskRecord, []string) {
	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, []string{fmt.Sprintf("JSON parsing error: %v", err)}
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, []string{"JSON must be an array of task objects"}
	}

	var (
		records []taskRecord
		errs    []string
	)
	for i, item := range items {
		itemNum := i + 1
		rec, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, fmt.Sprintf("Item %d: Must be an object/dictionary", itemNum))
			continue
		}

		parsed, err := validateRecord(rec)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Item %d: %v", itemNum, err))
			continue
		}
		records = append(records, parsed)
	}
	return records, errs
}

// fieldString reads the value under key as a string. The second return
// reports whether the key was present with a non-null value. Absent fields
// fall back to their defaults; present values are validated as given, so
// an explicit empty priority is an error while a missing one is "medium".
func fieldString(rec map[string]any, key string) (string, bool) {
	v, ok := rec[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", v), true
}

// validateRecord checks one raw import record and normalizes it. It stops
// at the first violation, in field order: title, description, priority,
// due_date, tags, completed.
func validateRecord(rec map[string]any) (taskRecord, error) {
	rawTitle, _ := fieldString(rec, "title")
	title := strings.TrimSpace(rawTitle)
	if title == "" {
		return taskRecord{}, &ValidationError{Msg: "Title is required"}
	}
	if utf8.RuneCountInString(title) > 200 {
		return taskRecord{}, &ValidationError{Msg: "Title must be 200 characters or less"}
	}

	description, _ := fieldString(rec, "description")
	if utf8.RuneCountInString(description) > 1000 {
		return taskRecord{}, &ValidationError{Msg: "Description must be 1000 characters or less"}
	}

	priority := string(domain.PriorityMedium)
	if raw, ok := fieldString(rec, "priority"); ok {
		priority = strings.ToLower(raw)
	}
	if !domain.Priority(priority).Valid() {
		return taskRecord{}, &ValidationError{
			Msg: fmt.Sprintf("Invalid priority '%s' (must be low, medium, or high)", priority),
		}
	}

	var due *time.Time
	if raw, ok := fieldString(rec, "due_date"); ok && raw != "" {
		parsed, err := domain.ParseDueDate(raw)
		if err != nil {
			return taskRecord{}, &ValidationError{
				Msg: fmt.Sprintf("Invalid due_date format '%s' (expected ISO 8601)", raw),
			}
		}
		due = &parsed
	}

	tags, err := fieldTags(rec)
	if err != nil {
		return taskRecord{}, err
	}

	completed := false
	if v, ok := rec["completed"]; ok && v != nil {
		completed, err = parseCompleted(v)
		if err != nil {
			return taskRecord{}, err
		}
	}

	return taskRecord{
		Title:       title,
		Description: strings.TrimSpace(description),
		Priority:    priority,
		DueDate:     due,
		Tags:        tags,
		Completed:   completed,
	}, nil
}

// fieldTags reads the tags field, which may be a comma-separated string
// (the CSV form) or an array of strings (the JSON form).
func fieldTags(rec map[string]any) ([]string, error) {
	raw, ok := rec["tags"]
	if !ok || raw == nil {
		return nil, nil
	}

	var tags []string
	switch v := raw.(type) {
	case string:
		tags = splitTagList(v)
	case []any:
		tags = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &ValidationError{Msg: "Tags must be an array"}
			}
			tags = append(tags, s)
		}
	default:
		return nil, &ValidationError{Msg: "Tags must be an array"}
	}

	if len(tags) > 10 {
		return nil, &ValidationError{Msg: "Maximum 10 tags allowed"}
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > 50 {
			return nil, &ValidationError{Msg: fmt.Sprintf("Tag '%s' exceeds 50 characters", tag)}
		}
	}
	return tags, nil
}

// splitTagList splits a comma-separated tag string, trimming entries and
// dropping empties.
func splitTagList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// parseCompleted coerces a completion flag from a bool or one of the
// strings true, false, 1, 0, yes, no in any case.
func parseCompleted(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(b) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
	}
	return false, &ValidationError{Msg: fmt.Sprintf("Invalid completed value '%v' (must be boolean)", v)}
}
