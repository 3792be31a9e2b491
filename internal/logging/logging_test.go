package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phuslu/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"DEBUG", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Format: FormatJSON, Output: &buf})

	l.Info().Msg("hidden")
	l.Warn().Str("ticker", "AAPL").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"ticker":"AAPL"`) {
		t.Errorf("expected ticker field in output: %s", out)
	}
}

func TestWithAddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Level: "info", Format: FormatJSON, Output: &buf})
	l := With(base, "run_id", "abc", "job", "news")

	l.Info().Msg("started")
	base.Info().Msg("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"run_id":"abc"`) || !strings.Contains(lines[0], `"job":"news"`) {
		t.Errorf("child logger missing context: %s", lines[0])
	}
	if strings.Contains(lines[1], "run_id") {
		t.Errorf("parent logger should not inherit child context: %s", lines[1])
	}
}

func TestDiscard(t *testing.T) {
	// must not panic or write anywhere
	Discard().Error().Msg("dropped")
}
