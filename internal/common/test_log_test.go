package common

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetLevelFiltersSharedLoggers(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })
	var buf bytes.Buffer
	l := NewLogger(&buf)

	SetLevel("warn")
	l.Info("hidden")
	l.Warn("shown", "program", "PGMA")
	SetLevel("debug")
	l.Debug("now visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info leaked at warn level: %s", out)
	}
	if !strings.Contains(out, "program=PGMA") || !strings.Contains(out, "now visible") {
		t.Fatalf("unexpected output: %s", out)
	}
}
