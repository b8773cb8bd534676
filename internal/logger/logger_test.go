package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]charmlog.Level{
		"debug":   charmlog.DebugLevel,
		" INFO ":  charmlog.InfoLevel,
		"warn":    charmlog.WarnLevel,
		"warning": charmlog.WarnLevel,
		"error":   charmlog.ErrorLevel,
		"":        charmlog.InfoLevel,
		"verbose": charmlog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestValidLevelAcceptsEveryParsedName(t *testing.T) {
	for _, name := range []string{"debug", "info", "warn", "warning", "error", " Error "} {
		if !ValidLevel(name) {
			t.Fatalf("expected %q to be valid", name)
		}
	}
	for _, name := range []string{"", "trace", "verbose"} {
		if ValidLevel(name) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestJSONLoggerWritesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", JSON: true, Output: &buf})
	log.Debug("request handled", "request", "mark_action_performed")
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry["msg"] != "request handled" || entry["request"] != "mark_action_performed" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestLevelFiltersLowerSeverities(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info("hidden")
	log.Debug("hidden")
	log.Warn("shown")
	log.Error("also shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info/debug to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "also shown") {
		t.Fatalf("expected warn and error output, got %q", out)
	}
}
