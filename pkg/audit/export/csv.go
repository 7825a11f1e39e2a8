package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"grundbuch-online/portal/pkg/audit"
)

// CSVExporter writes one row per record.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

var header = []string{
	"id", "request_id", "action", "environment",
	"request_time", "duration_ms", "status", "success", "outcome",
	"request_hash", "response_hash", "remote_addr", "error",
}

// Export writes records to w.
func (e *CSVExporter) Export(ctx context.Context, records []*audit.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(header); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{
			r.ID,
			r.RequestID,
			r.Action,
			r.Environment,
			r.RequestTime.UTC().Format(time.RFC3339),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			strconv.Itoa(r.Status),
			strconv.FormatBool(r.Success),
			r.Outcome,
			r.RequestHash,
			r.ResponseHash,
			r.RemoteAddr,
			r.Error,
		}
		if err := writer.Write(row); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(records), err)
	}
	return nil
}

// ForFormat returns the exporter for "json" or "csv".
func ForFormat(format string) (audit.Exporter, bool) {
	switch format {
	case "json", "":
		return NewJSONExporter(true), true
	case "csv":
		return NewCSVExporter(true), true
	}
	return nil, false
}
