package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLogQueryWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "debug", Output: &buf})

	l.LogQuery("FT.SEARCH", "@name:foo", 5*time.Millisecond, 3, nil)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["command"] != "FT.SEARCH" {
		t.Errorf("command = %v, want FT.SEARCH", entry["command"])
	}
	if entry["query"] != "@name:foo" {
		t.Errorf("query = %v", entry["query"])
	}
	if entry["level"] != "debug" {
		t.Errorf("level = %v, want debug", entry["level"])
	}
}

func TestLogQueryErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "error", Output: &buf})

	l.LogQuery("FT.SEARCH", "*", time.Millisecond, 0, nil)
	if buf.Len() != 0 {
		t.Fatalf("debug entry should be filtered at error level, got %q", buf.String())
	}

	l.LogQuery("FT.SEARCH", "*", time.Millisecond, 0, errors.New("Unknown index name"))
	if !strings.Contains(buf.String(), "Unknown index name") {
		t.Errorf("error entry missing backend message: %q", buf.String())
	}
}

func TestComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "debug", Output: &buf})

	l.SchemaLogger("Company").Debug("schema registered").Send()

	if !strings.Contains(buf.String(), `"component":"schema"`) || !strings.Contains(buf.String(), `"entity":"Company"`) {
		t.Errorf("missing component fields: %q", buf.String())
	}
}

func TestNopDiscards(t *testing.T) {
	Nop().Error("ignored").Send()
}

func TestFromZerolog(t *testing.T) {
	var buf bytes.Buffer
	l := FromZerolog(zerolog.New(&buf))

	l.WithFields(map[string]interface{}{"tenant": "acme"}).Info("ready").Send()
	if !strings.Contains(buf.String(), `"tenant":"acme"`) {
		t.Errorf("missing field: %q", buf.String())
	}
	buf.Reset()
	l.GetZerolog().Debug().Msg("raw")
	if !strings.Contains(buf.String(), `"message":"raw"`) {
		t.Errorf("GetZerolog should write to the wrapped output: %q", buf.String())
	}
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	InitGlobalLogger(Config{Level: "warn", Output: &buf})
	defer InitGlobalLogger(Config{Level: "info"})

	GetGlobalLogger().Info("dropped").Send()
	GetGlobalLogger().Warn("kept").Send()
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("global logger output = %q", buf.String())
	}
}
