// Package export serializes the current queue for manual backup. Read-only:
// nothing here mutates the queue.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/marcus/leadvault/internal/models"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format: %s (valid: csv, json)", s)
}

// Write serializes records to w in the given format.
func Write(w io.Writer, records []models.LeadRecord, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, records)
	case FormatCSV:
		return writeCSV(w, records)
	}
	return fmt.Errorf("unknown export format: %s", format)
}

func writeJSON(w io.Writer, records []models.LeadRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []models.LeadRecord{}
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"local_id", "tenant_id", "email", "name", "company", "phone", "source",
	"sync_status", "remote_id", "captured_at", "attempt_count", "last_attempt_at", "last_error",
}

func writeCSV(w io.Writer, records []models.LeadRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		lastAttempt := ""
		if r.LastAttemptAt != nil {
			lastAttempt = r.LastAttemptAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			r.LocalID,
			r.TenantID,
			r.Payload.Email,
			r.Payload.Name,
			r.Payload.Company,
			r.Payload.Phone,
			r.Payload.Source,
			string(r.SyncStatus),
			r.RemoteID,
			r.CapturedAt.UTC().Format(time.RFC3339),
			fmt.Sprintf("%d", r.AttemptCount),
			lastAttempt,
			r.LastError,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %s: %w", r.LocalID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
