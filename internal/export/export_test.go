package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/marcus/leadvault/internal/models"
)

func sampleRecords() []models.LeadRecord {
	captured := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	attempted := captured.Add(5 * time.Minute)
	return []models.LeadRecord{
		{
			LocalID:       "id-1",
			Payload:       models.LeadPayload{Email: "a@x.co", Name: "Ada", Company: "Acme"},
			TenantID:      "t1",
			CapturedAt:    captured,
			SyncStatus:    models.StatusSynced,
			RemoteID:      "r-1",
			AttemptCount:  1,
			LastAttemptAt: &attempted,
		},
		{
			LocalID:    "id-2",
			Payload:    models.LeadPayload{Email: "b@x.co"},
			CapturedAt: captured,
			SyncStatus: models.StatusPending,
		},
	}
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("csv"); err != nil {
		t.Errorf("csv rejected: %v", err)
	}
	if _, err := ParseFormat("json"); err != nil {
		t.Errorf("json rejected: %v", err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("xml accepted, want error")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRecords(), FormatJSON); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var out []models.LeadRecord
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("records: got %d, want 2", len(out))
	}
	if out[0].RemoteID != "r-1" || out[1].SyncStatus != models.StatusPending {
		t.Error("round-trip lost fields")
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, FormatJSON); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty export: got %q, want []", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRecords(), FormatCSV); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want header + 2", len(rows))
	}
	if rows[0][0] != "local_id" {
		t.Errorf("header: got %v", rows[0])
	}
	if rows[1][2] != "a@x.co" || rows[1][8] != "r-1" {
		t.Errorf("first row: got %v", rows[1])
	}
	if rows[2][7] != "pending" || rows[2][11] != "" {
		t.Errorf("second row: got %v", rows[2])
	}
}
