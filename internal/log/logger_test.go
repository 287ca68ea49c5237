package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: NewHandler(&buf, FormatJSON, slog.LevelInfo), Component: ComponentReports})

	logger.Debug("hidden")
	logger.Info("Monthly report built", FieldYear, 2024, FieldMonth, 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "Monthly report built" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry[FieldComponent] != ComponentReports {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentReports)
	}
	if entry[FieldYear] != float64(2024) {
		t.Errorf("year = %v", entry[FieldYear])
	}
}

func TestNewHandlerFormats(t *testing.T) {
	for _, format := range []string{FormatText, FormatTint, "unknown"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			slog.New(NewHandler(&buf, format, slog.LevelDebug)).Debug("hello", "k", "v")
			if !strings.Contains(buf.String(), "hello") {
				t.Errorf("%s handler output %q missing message", format, buf.String())
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	logger := New(DefaultConfig()).WithComponent(ComponentExport)
	if logger.Component() != ComponentExport {
		t.Errorf("Component() = %q, want %q", logger.Component(), ComponentExport)
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithTransaction("alice", "expense", 1250, "cat-travel", "").
		WithPeriod(2024, 3)

	if fields[FieldOwnerID] != "alice" || fields[FieldAmountCents] != int64(1250) {
		t.Errorf("unexpected fields: %v", fields)
	}
	if _, ok := fields[FieldProjectID]; ok {
		t.Error("empty project id should be omitted")
	}
	if got := len(fields.ToSlice()); got != 2*len(fields) {
		t.Errorf("ToSlice() length = %d, want %d", got, 2*len(fields))
	}
}
