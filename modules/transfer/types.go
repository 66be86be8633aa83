package transfer

import "context"

// Export formats accepted by the export-tasks and import-tasks services.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ExportRequest asks for one owner's full task set in the given format.
type ExportRequest struct {
	UserID string `json:"user_id"`
	Format string `json:"format"`
}

// ExportResponse carries a rendered export file.
type ExportResponse struct {
	Filename  string `json:"filename"`
	MediaType string `json:"media_type"`
	Content   string `json:"content"`
}

// ImportRequest carries the raw text of an uploaded import file.
type ImportRequest struct {
	UserID  string `json:"user_id"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

// ImportResult summarizes one import run. Errors counts the entries in
// ErrorsList, which is null when every record imported cleanly. Records
// that fail never block the rest of the file.
type ImportResult struct {
	Imported   int      `json:"imported"`
	Errors     int      `json:"errors"`
	ErrorsList []string `json:"errors_list"`
}

// TransferPort defines the interface driving adapters use to reach the
// transfer module across the service container.
type TransferPort interface {
	Export(ctx context.Context, userID, format string) (*ExportResponse, error)
	Import(ctx context.Context, userID, format, content string) (*ImportResult, error)
}
