// Package report saves executive report documents to disk.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName returns the report file name for the UTC date of now.
func FileName(now time.Time) string {
	return "executive-report-" + now.UTC().Format("2006-01-02") + ".json"
}

// Save pretty-prints doc into dir and returns the written path. A report
// saved twice on the same day overwrites the earlier file.
func Save(dir string, doc json.RawMessage, now time.Time) (string, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return "", errors.New("report is empty")
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, doc, "", "  "); err != nil {
		return "", fmt.Errorf("format report: %w", err)
	}
	pretty.WriteByte('\n')

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	tmp, err := os.CreateTemp(dir, ".executive-report-*")
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(pretty.Bytes()); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}
