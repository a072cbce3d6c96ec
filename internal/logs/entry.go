package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"shokofin/internal/logging"
)

// Entry is one decoded line of the JSON log.
type Entry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Component string
	EventType string
	Fields    map[string]any
	Raw       string
}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects are
// reported with ok false.
func ParseEntry(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return Entry{}, false
	}

	entry := Entry{Raw: line, Level: slog.LevelInfo}
	if value, ok := fields["ts"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, value); err == nil {
			entry.Time = parsed
		}
	}
	if value, ok := fields["level"].(string); ok {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err == nil {
			entry.Level = level
		}
	}
	entry.Message, _ = fields["msg"].(string)
	entry.Component, _ = fields[logging.FieldComponent].(string)
	entry.EventType, _ = fields[logging.FieldEventType].(string)
	for _, key := range []string{"ts", "level", "msg", logging.FieldComponent, logging.FieldEventType} {
		delete(fields, key)
	}
	entry.Fields = fields
	return entry, true
}

// Filter selects entries by minimum level and exact field values.
type Filter struct {
	MinLevel  slog.Level
	Component string
	SeriesID  string
	FileID    int
}

// Match reports whether entry passes the filter.
func (f Filter) Match(entry Entry) bool {
	if entry.Level < f.MinLevel {
		return false
	}
	if f.Component != "" && !strings.EqualFold(entry.Component, f.Component) {
		return false
	}
	if f.SeriesID != "" && fmt.Sprint(entry.Fields[logging.FieldSeriesID]) != f.SeriesID {
		return false
	}
	if f.FileID > 0 {
		value, ok := entry.Fields[logging.FieldFileID].(float64)
		if !ok || int(value) != f.FileID {
			return false
		}
	}
	return true
}

// Format renders entry as a single human-readable line. Remaining fields are
// appended in key order.
func Format(entry Entry) string {
	var b strings.Builder
	if !entry.Time.IsZero() {
		b.WriteString(entry.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", entry.Level.String())
	if entry.Component != "" {
		fmt.Fprintf(&b, " [%s]", entry.Component)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for key := range entry.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, entry.Fields[key])
	}
	return b.String()
}
