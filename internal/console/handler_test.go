package console

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestHandlerFormatsLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &Options{Level: slog.LevelDebug, NoColor: true}))

	logger.Debug("event", "kind", "Created", "path", "/tmp/a b.txt")
	logger.Info("watcher active", "path", "/src")
	logger.Warn("path is invalid and will be skipped", "path", "/nope")
	logger.Error("failed to start program", "error", errors.New("exec: not found"))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}

	want := []string{
		`event kind=Created path="/tmp/a b.txt"`,
		`watcher active path=/src`,
		`warning: path is invalid and will be skipped path=/nope`,
		`error: failed to start program error="exec: not found"`,
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &Options{NoColor: true}))

	logger.Debug("hidden")
	logger.Info("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug line emitted at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("info line missing")
	}
}

func TestHandlerLevelVar(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(NewHandler(&buf, &Options{Level: level, NoColor: true}))

	logger.Debug("before")
	level.Set(slog.LevelDebug)
	logger.Debug("after")

	if strings.Contains(buf.String(), "before") || !strings.Contains(buf.String(), "after") {
		t.Errorf("level var not honored: %q", buf.String())
	}
}

func TestHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &Options{NoColor: true})).
		With("component", "coordinator", "root", "/src").
		WithGroup("child")

	logger.Info("program exited", "pid", 42, "waited", 1500*time.Millisecond)

	got := strings.TrimSpace(buf.String())
	want := "program exited root=/src child.pid=42 child.waited=1.5s"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHandlerTimestamps(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &Options{NoColor: true, Timestamps: true}))

	logger.Info("tick")

	line := strings.TrimSpace(buf.String())
	if len(line) < len("15:04:05 tick") || !strings.HasSuffix(line, " tick") {
		t.Errorf("expected timestamp prefix, got %q", line)
	}
}

func TestFormatValueQuoting(t *testing.T) {
	cases := map[string]string{
		"plain":     "plain",
		"":          `""`,
		"has space": `"has space"`,
		"a=b":       `"a=b"`,
	}
	for in, want := range cases {
		if got := formatValue(slog.StringValue(in)); got != want {
			t.Errorf("formatValue(%q) = %s, want %s", in, got, want)
		}
	}
}
