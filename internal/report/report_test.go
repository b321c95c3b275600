package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileName_UsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	now := time.Date(2026, 10, 18, 20, 0, 0, 0, loc) // already the 19th in UTC
	if got := FileName(now); got != "executive-report-2026-10-19.json" {
		t.Fatalf("FileName = %q", got)
	}
}

func TestSave_WritesPrettyJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	path, err := Save(dir, json.RawMessage(`{"title":"Weekly","kpis":{"revenue":1200}}`), now)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if filepath.Base(path) != "executive-report-2026-10-18.json" {
		t.Fatalf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	want := "{\n  \"title\": \"Weekly\",\n  \"kpis\": {\n    \"revenue\": 1200\n  }\n}\n"
	if string(data) != want {
		t.Fatalf("report =\n%s\nwant\n%s", data, want)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want only the report", len(entries))
	}
}

func TestSave_Rejects(t *testing.T) {
	dir := t.TempDir()
	if _, err := Save(dir, nil, time.Now()); err == nil {
		t.Fatal("Save(nil) returned nil error")
	}
	if _, err := Save(dir, json.RawMessage(`{broken`), time.Now()); err == nil {
		t.Fatal("Save(invalid) returned nil error")
	}
}
