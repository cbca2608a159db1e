package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatalf("expected default logger without context value")
	}
	l := Discard()
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatalf("expected stored logger")
	}
}

func TestNewWithOptions(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithOptions(buf, "json", "warn")
	l.Info("hidden")
	l.Warn("shown", "node_id", "node-1")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn level: %q", out)
	}
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"node_id":"node-1"`) {
		t.Fatalf("expected JSON output, got %q", out)
	}
}
