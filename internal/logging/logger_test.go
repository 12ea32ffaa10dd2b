package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"bookreel/internal/services"
)

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("scene started", String(FieldEventType, "scene_start"), Int(FieldScene, 2))

	line := buf.String()
	if !strings.Contains(line, "INFO") {
		t.Errorf("missing level label: %q", line)
	}
	if !strings.Contains(line, "scene started") {
		t.Errorf("missing message: %q", line)
	}
	if !strings.Contains(line, "event_type=scene_start") {
		t.Errorf("missing event_type attr: %q", line)
	}
	if !strings.Contains(line, "scene=2") {
		t.Errorf("missing scene attr: %q", line)
	}
}

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := NewComponentLogger(slog.New(newConsoleHandler(&buf, levelVar)), "resultcache")

	logger.Info("entry stored")

	line := buf.String()
	if !strings.Contains(line, "resultcache: entry stored") {
		t.Errorf("component not promoted into message prefix: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component should not appear as a trailing attr: %q", line)
	}
}

func TestWithContextAttachesFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	base := slog.New(newConsoleHandler(&buf, levelVar))

	ctx := services.WithJobID(context.Background(), "job-123")
	ctx = services.WithScene(ctx, 3)
	ctx = services.WithStage(ctx, "keyframe")

	WithContext(ctx, base).Info("stage retry")

	line := buf.String()
	for _, want := range []string{"job_id=job-123", "scene=3", "stage=keyframe"} {
		if !strings.Contains(line, want) {
			t.Errorf("missing %q in %q", want, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
