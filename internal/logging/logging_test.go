package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tagtree/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  log.Level
	}{
		{"debug", "debug", log.DebugLevel},
		{"info", "info", log.InfoLevel},
		{"warn", "warn", log.WarnLevel},
		{"warning", "warning", log.WarnLevel},
		{"upper case", "ERROR", log.ErrorLevel},
		{"fatal", "fatal", log.FatalLevel},
		{"unknown defaults to info", "unknown", log.InfoLevel},
		{"empty defaults to info", "", log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestParseFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   log.Formatter
	}{
		{"json", "json", log.JSONFormatter},
		{"logfmt", "logfmt", log.LogfmtFormatter},
		{"text", "text", log.TextFormatter},
		{"unknown defaults to text", "yaml", log.TextFormatter},
		{"empty defaults to text", "", log.TextFormatter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFormatter(tt.format); got != tt.want {
				t.Errorf("ParseFormatter(%q) = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("warn", "logfmt"); err != nil {
		t.Errorf("Validate(warn, logfmt): %v", err)
	}
	if err := Validate("loud", "text"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := Validate("info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "warn", LogFormat: "json"}
	logger := FromConfig(cfg, &buf)

	logger.Info("hidden")
	logger.Warn("saved tag store", "tags", 3)

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", out, err)
	}
	if entry["msg"] != "saved tag store" {
		t.Errorf("msg: got %v", entry["msg"])
	}
	if entry["tags"] != float64(3) {
		t.Errorf("tags: got %v", entry["tags"])
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Level != log.InfoLevel {
		t.Errorf("Level = %v, want %v", opts.Level, log.InfoLevel)
	}
	if opts.Formatter != log.TextFormatter {
		t.Errorf("Formatter = %v, want %v", opts.Formatter, log.TextFormatter)
	}
	if opts.ReportTimestamp || opts.ReportCaller {
		t.Error("timestamps and caller must be off by default")
	}

	var buf bytes.Buffer
	New(&buf, opts).Debug("quiet")
	if buf.Len() != 0 {
		t.Errorf("debug logged at info level: %q", buf.String())
	}
}
