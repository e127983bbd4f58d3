package server

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LogEntry represents a single captured log line.
type LogEntry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// ring is the storage shared by a LogBuffer and the handlers derived from it.
type ring struct {
	mu      sync.Mutex
	entries []LogEntry
	pos     int
	full    bool
}

func (r *ring) add(e LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.pos] = e
	r.pos++
	if r.pos == len(r.entries) {
		r.pos = 0
		r.full = true
	}
}

// LogBuffer is a ring-buffer slog.Handler that captures recent log entries
// while forwarding them to a wrapped handler.
type LogBuffer struct {
	inner slog.Handler
	ring  *ring
	// attrs added through WithAttrs, recorded with every entry.
	attrs []slog.Attr
	group string
}

// NewLogBuffer creates a LogBuffer wrapping the given handler, retaining up to maxSize entries.
func NewLogBuffer(inner slog.Handler, maxSize int) *LogBuffer {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LogBuffer{
		inner: inner,
		ring:  &ring{entries: make([]LogEntry, maxSize)},
	}
}

// Enabled delegates to the inner handler.
func (lb *LogBuffer) Enabled(ctx context.Context, level slog.Level) bool {
	return lb.inner.Enabled(ctx, level)
}

// Handle captures the log record into the ring buffer and forwards to the inner handler.
func (lb *LogBuffer) Handle(ctx context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
	}

	if n := len(lb.attrs) + r.NumAttrs(); n > 0 {
		entry.Attrs = make(map[string]any, n)
		for _, a := range lb.attrs {
			entry.Attrs[a.Key] = a.Value.Any()
		}
		r.Attrs(func(a slog.Attr) bool {
			entry.Attrs[lb.group+a.Key] = a.Value.Any()
			return true
		})
	}

	lb.ring.add(entry)
	return lb.inner.Handle(ctx, r)
}

// WithAttrs returns a handler writing to the same buffer.
func (lb *LogBuffer) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &LogBuffer{
		inner: lb.inner.WithAttrs(attrs),
		ring:  lb.ring,
		group: lb.group,
		attrs: make([]slog.Attr, 0, len(lb.attrs)+len(attrs)),
	}
	next.attrs = append(next.attrs, lb.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: lb.group + a.Key, Value: a.Value})
	}
	return next
}

// WithGroup returns a handler writing to the same buffer. Keys recorded
// after the group are prefixed with "name.".
func (lb *LogBuffer) WithGroup(name string) slog.Handler {
	if name == "" {
		return lb
	}
	return &LogBuffer{
		inner: lb.inner.WithGroup(name),
		ring:  lb.ring,
		attrs: lb.attrs,
		group: lb.group + name + ".",
	}
}

// Entries returns the buffered log entries in chronological order.
func (lb *LogBuffer) Entries() []LogEntry {
	r := lb.ring
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		result := make([]LogEntry, r.pos)
		copy(result, r.entries[:r.pos])
		return result
	}

	// Full: entries from pos..end, then 0..pos.
	size := len(r.entries)
	result := make([]LogEntry, size)
	copy(result, r.entries[r.pos:])
	copy(result[size-r.pos:], r.entries[:r.pos])
	return result
}
