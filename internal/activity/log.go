package activity

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const defaultCapacity = 1000

// Log is the running, timestamped activity log shown next to the carousel.
type Log struct {
	mu       sync.Mutex
	lines    []string
	capacity int
	now      func() time.Time
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Log{capacity: capacity, now: time.Now}
}

// Append records msg as "[HH:MM:SS] msg", dropping the oldest line when full.
func (l *Log) Append(msg string) {
	line := "[" + l.now().Format("15:04:05") + "] " + msg
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) >= l.capacity {
		copy(l.lines, l.lines[1:])
		l.lines = l.lines[:len(l.lines)-1]
	}
	l.lines = append(l.lines, line)
}

// Lines returns a copy of the log, optionally only the trailing tail lines.
func (l *Log) Lines(tail int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := 0
	if tail > 0 && tail < len(l.lines) {
		start = len(l.lines) - tail
	}
	out := make([]string, len(l.lines)-start)
	copy(out, l.lines[start:])
	return out
}

func (l *Log) String() string {
	return strings.Join(l.Lines(0), "\n")
}

// Handler mirrors record messages at or above Level into a Log and forwards
// the records the wrapped handler accepts.
type Handler struct {
	next  slog.Handler
	log   *Log
	level slog.Level
}

func NewHandler(next slog.Handler, log *Log, level slog.Level) *Handler {
	return &Handler{next: next, log: log, level: level}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level || h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level && h.log != nil {
		h.log.Append(r.Message)
	}
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs), log: h.log, level: h.level}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), log: h.log, level: h.level}
}
