package log

import (
	"bytes"
	"context"
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
		{" WARN ", slog.LevelWarn},
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

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentSwipe, Output: &buf})

	logger.Info("row revealed", FieldRowID, "42")
	out := buf.String()
	if !strings.Contains(out, "component=swipe") || !strings.Contains(out, "row_id=42") {
		t.Fatalf("unexpected output: %q", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentHistory).Debug("rendered")
	if !strings.Contains(buf.String(), "component=history") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})
	logger.Warn("slow")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if got := FromContext(context.Background()); got == nil || got.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger: %+v", got)
	}

	var buf bytes.Buffer
	ctx := NewContext(context.Background(), New(Config{Output: &buf, Component: ComponentAPI}))
	ctx = WithUserID(WithRequestID(ctx, "req-1"), 7)
	FromContext(ctx).InfoContext(ctx, "hello")
	out := buf.String()
	for _, want := range []string{"request_id=req-1", "user_id=7", "component=api"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}
