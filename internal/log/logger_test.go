package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestJSONLoggerAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.With("component", "planner").Debug("level planned",
		Int("level", 3),
		Int("subgraphs", 5),
	)

	out := buf.String()
	for _, want := range []string{"level planned", `"component":"planner"`, `"level":3`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestDiscardLoggerDropsEverything(t *testing.T) {
	l := Discard()
	// Must not panic and must not write anywhere observable.
	l.Info("ignored", String("key", "value"))
	l.With("k", "v").Error("ignored too")
}

func TestSetDefault(t *testing.T) {
	old := Default()
	defer SetDefault(old)

	var buf bytes.Buffer
	SetDefault(New(slog.NewTextHandler(&buf, nil)))
	Info("hello", String("who", "test"))

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected default logger to receive message, got %q", buf.String())
	}
}
