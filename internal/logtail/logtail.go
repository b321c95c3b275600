package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines. maxLines <= 0 returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one decoded JSON log line.
type Entry struct {
	Time    time.Time
	Level   string
	Logger  string
	Message string
	Fields  map[string]any
	Raw     string // set when the line is not JSON
}

var reserved = map[string]bool{"ts": true, "level": true, "logger": true, "msg": true, "caller": true}

// Parse decodes a JSON log line. Lines that are not JSON come back with only
// Raw set.
func Parse(line string) Entry {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return Entry{Raw: line}
	}

	e := Entry{}
	if ts, ok := fields["ts"].(string); ok {
		e.Time, _ = time.Parse("2006-01-02T15:04:05.000Z0700", ts)
	}
	e.Level, _ = fields["level"].(string)
	e.Logger, _ = fields["logger"].(string)
	e.Message, _ = fields["msg"].(string)
	for k, v := range fields {
		if reserved[k] {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string]any)
		}
		e.Fields[k] = v
	}
	return e
}

// Severity orders levels; unknown levels rank as info.
func Severity(level string) int {
	l := strings.ToLower(strings.TrimSpace(level))
	switch l {
	case "trace", "debug":
		return 0
	case "", "info":
		return 1
	case "warn", "warning":
		return 2
	case "error":
		return 3
	case "dpanic", "panic", "fatal":
		return 4
	}
	if strings.HasPrefix(l, "level(") {
		return 0 // zap renders V(2) and below as Level(-2)
	}
	return 1
}

// String renders the entry as "2026-10-18 09:30:00 INFO [femg.poller] – msg k=v".
func (e Entry) String() string {
	if e.Raw != "" || (e.Message == "" && e.Level == "") {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(strings.ToUpper(e.Level))
	if e.Logger != "" {
		b.WriteString(" [" + e.Logger + "]")
	}
	b.WriteString(" – ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}

// Filter decodes lines and keeps entries at or above minLevel. Non-JSON lines
// are always kept.
func Filter(lines []string, minLevel string) []Entry {
	floor := Severity(minLevel)
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		e := Parse(line)
		if e.Raw == "" && Severity(e.Level) < floor {
			continue
		}
		out = append(out, e)
	}
	return out
}
