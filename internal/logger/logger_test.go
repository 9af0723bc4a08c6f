package logger

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/Strob0t/Warden/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
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

func TestNewSyncReturnsNopCloser(t *testing.T) {
	log, closer := New(config.Logging{Level: "info", Service: "warden-test"})
	if log == nil {
		t.Fatal("New returned nil logger")
	}
	closer.Close() // must not panic or block
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("RequestID(empty ctx) = %q, want empty", got)
	}
	ctx = WithRequestID(ctx, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("RequestID = %q, want req-123", got)
	}
}

// countingHandler records how many times Handle is called.
type countingHandler struct {
	mu    sync.Mutex
	count int
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *countingHandler) Handle(context.Context, slog.Record) error {
	h.mu.Lock()
	h.count++
	h.mu.Unlock()
	return nil
}

func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	inner := &countingHandler{}
	h := NewAsyncHandler(inner, 64, 2)
	log := slog.New(h)

	for range 50 {
		log.Info("event")
	}
	h.Close()

	inner.mu.Lock()
	defer inner.mu.Unlock()
	if inner.count+int(h.DroppedCount()) != 50 {
		t.Errorf("handled %d + dropped %d, want total 50", inner.count, h.DroppedCount())
	}
}

func TestAsyncHandlerDropsWhenFull(t *testing.T) {
	inner := &countingHandler{}
	h := NewAsyncHandler(inner, 1, 0) // no workers: channel fills immediately

	rec := slog.Record{}
	_ = h.Handle(context.Background(), rec)
	_ = h.Handle(context.Background(), rec)

	if h.DroppedCount() != 1 {
		t.Errorf("DroppedCount = %d, want 1", h.DroppedCount())
	}
	close(h.ch)
}
