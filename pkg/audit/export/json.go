package export

import (
	"context"
	"encoding/json"
	"io"

	"grundbuch-online/portal/pkg/audit"
)

// JSONExporter writes records as a JSON array.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes records to w.
func (e *JSONExporter) Export(ctx context.Context, records []*audit.Record, w io.Writer) error {
	if records == nil {
		records = []*audit.Record{}
	}
	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return audit.NewExportError("json", len(records), err)
	}
	return nil
}
