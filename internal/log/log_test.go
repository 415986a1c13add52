package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo})

	logger.Info("artifact created", "type", "code")

	out := buf.String()
	if !strings.Contains(out, "artifact created") {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, "type=code") {
		t.Errorf("output missing attribute: %s", out)
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo, JSON: true})

	logger.Info("artifact created", "type", "code")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "artifact created" {
		t.Errorf("msg = %v, want %q", entry["msg"], "artifact created")
	}
	if entry["type"] != "code" {
		t.Errorf("type = %v, want %q", entry["type"], "code")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

	logger.Debug("below threshold")
	logger.Info("also below threshold")
	if buf.Len() != 0 {
		t.Errorf("records below the configured level were written: %s", buf.String())
	}

	logger.Warn("at threshold")
	if !strings.Contains(buf.String(), "at threshold") {
		t.Errorf("record at the configured level was dropped")
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must accept all levels.
	logger.Debug("discarded")
	logger.Error("also discarded", "err", "boom")
}
