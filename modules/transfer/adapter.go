package transfer

import (
	"context"
	"encoding/json"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// transferAdapter wraps the transfer module's ServiceContainer for
// type-safe cross-module calls. It implements TransferPort.
type transferAdapter struct {
	container mono.ServiceContainer
}

// NewTransferAdapter creates an adapter for the transfer services.
func NewTransferAdapter(container mono.ServiceContainer) TransferPort {
	if container == nil {
		panic("transfer adapter requires non-nil ServiceContainer")
	}
	return &transferAdapter{container: container}
}

// Export renders one owner's task set via the export-tasks service.
func (a *transferAdapter) Export(ctx context.Context, userID, format string) (*ExportResponse, error) {
	req := ExportRequest{UserID: userID, Format: format}
	var resp ExportResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "export-tasks", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Import runs a file import via the import-tasks service.
func (a *transferAdapter) Import(ctx context.Context, userID, format, content string) (*ImportResult, error) {
	req := ImportRequest{UserID: userID, Format: format, Content: content}
	var resp ImportResult
	if err := helper.CallRequestReplyService(
		ctx, a.container, "import-tasks", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}
