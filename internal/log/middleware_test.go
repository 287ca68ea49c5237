package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextLogger(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("fallback component = %q, want unknown", got.Component())
	}

	var buf bytes.Buffer
	logger := New(Config{Handler: NewHandler(&buf, FormatText, slog.LevelInfo), Component: ComponentHTTP}).
		With(FieldRequestID, "req_1")
	ctx := WithContext(context.Background(), logger)

	FromContext(ctx).Info("Request completed")
	if !strings.Contains(buf.String(), "req_1") {
		t.Errorf("output %q lacks the request id", buf.String())
	}
}
