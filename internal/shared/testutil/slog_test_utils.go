// Package testutil holds shared test helpers. The slog handler here lets
// tests assert on what a component logged without parsing handler output.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log entry.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// BufferedSlogHandler records everything logged through it.
type BufferedSlogHandler struct {
	mu      sync.Mutex
	records []LogRecord
}

func (h *BufferedSlogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

func (h *BufferedSlogHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (h *BufferedSlogHandler) WithAttrs(_ []slog.Attr) slog.Handler        { return h }
func (h *BufferedSlogHandler) WithGroup(_ string) slog.Handler             { return h }

// Records returns a copy of everything captured so far.
func (h *BufferedSlogHandler) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(h.records))
	copy(out, h.records)
	return out
}

// NewTestLogger returns a logger whose output is captured by the returned
// handler.
func NewTestLogger(t *testing.T) (*slog.Logger, *BufferedSlogHandler) {
	t.Helper()
	handler := &BufferedSlogHandler{}
	return slog.New(handler), handler
}

// AssertLogContains fails the test unless a record at the given level has a
// message containing the substring.
func AssertLogContains(t *testing.T, handler *BufferedSlogHandler, level slog.Level, message string) {
	t.Helper()
	for _, r := range handler.Records() {
		if r.Level == level && strings.Contains(r.Message, message) {
			return
		}
	}
	t.Errorf("no %s log containing %q; captured:", level, message)
	for _, r := range handler.Records() {
		t.Logf("  [%s] %s", r.Level, r.Message)
	}
}

// AssertLogAttr fails the test unless some record carries key=value.
func AssertLogAttr(t *testing.T, handler *BufferedSlogHandler, key string, value any) {
	t.Helper()
	for _, r := range handler.Records() {
		if got, ok := r.Attrs[key]; ok && got == value {
			return
		}
	}
	t.Errorf("no log record with attribute %s=%v", key, value)
}
