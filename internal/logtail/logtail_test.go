package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "femg.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestParseAndString(t *testing.T) {
	line := `{"level":"error","ts":"2026-10-18T09:30:00.000Z","logger":"femg.backend","msg":"remote call failed","action":"get_admins","status":500}`
	e := Parse(line)
	if e.Raw != "" || e.Level != "error" || e.Logger != "femg.backend" || e.Message != "remote call failed" {
		t.Fatalf("Parse = %+v", e)
	}
	if e.Time.IsZero() {
		t.Fatal("timestamp not parsed")
	}
	if _, ok := e.Fields["ts"]; ok {
		t.Fatal("reserved key leaked into Fields")
	}

	s := e.String()
	if !strings.Contains(s, "ERROR [femg.backend] – remote call failed action=get_admins status=500") {
		t.Fatalf("String = %q", s)
	}

	plain := Parse("not json")
	if plain.Raw != "not json" || plain.String() != "not json" {
		t.Fatalf("Parse(plain) = %+v", plain)
	}
}

func TestFilter(t *testing.T) {
	lines := []string{
		`{"level":"debug","msg":"a"}`,
		`{"level":"info","msg":"b"}`,
		`{"level":"warn","msg":"c"}`,
		`{"level":"Level(-2)","msg":"d"}`,
		`panic: boom`,
		``,
		`{"level":"error","msg":"e"}`,
	}

	tests := []struct {
		min  string
		want []string
	}{
		{"debug", []string{"a", "b", "c", "d", "panic: boom", "e"}},
		{"info", []string{"b", "c", "panic: boom", "e"}},
		{"error", []string{"panic: boom", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.min, func(t *testing.T) {
			var got []string
			for _, e := range Filter(lines, tt.min) {
				if e.Raw != "" {
					got = append(got, e.Raw)
				} else {
					got = append(got, e.Message)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Filter(%s) = %v, want %v", tt.min, got, tt.want)
			}
		})
	}
}
