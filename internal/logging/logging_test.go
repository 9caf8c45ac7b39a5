package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestResolveLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range cases {
		got, err := ResolveLogLevel(tc.in)
		if err != nil {
			t.Fatalf("ResolveLogLevel(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ResolveLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ResolveLogLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "note", 60)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "note=60") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New("loud", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error")
	}
}
