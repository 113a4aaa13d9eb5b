package activity

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestAppendFormatsTimestamp(t *testing.T) {
	l := NewLog(10)
	l.now = func() time.Time { return time.Date(2025, 3, 1, 9, 5, 7, 0, time.UTC) }
	l.Append("Starting generation")

	lines := l.Lines(0)
	if len(lines) != 1 || lines[0] != "[09:05:07] Starting generation" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestCapacityDropsOldest(t *testing.T) {
	l := NewLog(2)
	l.Append("a")
	l.Append("b")
	l.Append("c")
	lines := l.Lines(0)
	if len(lines) != 2 || !strings.HasSuffix(lines[0], " b") || !strings.HasSuffix(lines[1], " c") {
		t.Fatalf("unexpected lines %v", lines)
	}
	if tail := l.Lines(1); len(tail) != 1 || !strings.HasSuffix(tail[0], " c") {
		t.Fatalf("unexpected tail %v", tail)
	}
}

func TestHandlerMirrorsMessages(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(0)
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(NewHandler(base, l, slog.LevelInfo)).With("service", "imagegenie")

	logger.Debug("hidden")
	logger.Info("Completed Flux Schnell")
	logger.Warn("Timeout for Imagen 3")

	lines := l.Lines(0)
	if len(lines) != 2 {
		t.Fatalf("expected 2 activity lines, got %v", lines)
	}
	if !strings.Contains(lines[0], "Completed Flux Schnell") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	out := buf.String()
	if strings.Contains(out, "Completed Flux Schnell") {
		t.Errorf("info record should not reach a warn-level handler: %s", out)
	}
	if !strings.Contains(out, "Timeout for Imagen 3") || !strings.Contains(out, "service=imagegenie") {
		t.Errorf("warn record missing from base handler: %s", out)
	}
}
