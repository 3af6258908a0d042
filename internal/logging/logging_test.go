package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := WithFields(NewWithWriter(&buf), map[string]any{"family": "orca"})
	ctx := WithContext(context.Background(), logger)

	FromContext(ctx).Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["family"] != "orca" {
		t.Errorf("expected family=orca, got %v", entry["family"])
	}
	if entry["message"] != "hello" {
		t.Errorf("expected message=hello, got %v", entry["message"])
	}
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	if l.GetLevel() != Default().GetLevel() {
		t.Errorf("expected fallback logger level %v, got %v", Default().GetLevel(), l.GetLevel())
	}
}

func TestFromContextChained(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), NewWithWriter(&buf))

	FromContext(ctx).Warn().Str("subsystem", "refills").Msg("failed")
	FromContext(ctx).Debug().Msg("detail")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "warn" || entry["subsystem"] != "refills" {
		t.Errorf("unexpected entry %v", entry)
	}
	t.Logf("✓ chained %d log calls", len(lines))
}
