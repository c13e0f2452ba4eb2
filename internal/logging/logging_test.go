package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"info":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Run("filters below configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(Config{Level: "warn"}, &buf)

		logger.Info().Msg("hidden")
		if buf.Len() != 0 {
			t.Errorf("Expected info to be filtered, got %s", buf.String())
		}

		logger.Warn().Str("symbol", "AAPL").Msg("shown")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
		}
		if entry["symbol"] != "AAPL" {
			t.Errorf("Expected symbol field, got %v", entry["symbol"])
		}
		if entry["level"] != "warn" {
			t.Errorf("Expected level warn, got %v", entry["level"])
		}
	})

	t.Run("pretty output is not JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(Config{Level: "info", Pretty: true}, &buf)

		logger.Info().Msg("hello")

		if json.Valid(buf.Bytes()) {
			t.Errorf("Expected console output, got JSON %s", buf.String())
		}
		if !bytes.Contains(buf.Bytes(), []byte("hello")) {
			t.Errorf("Expected message in output, got %s", buf.String())
		}
	})
}
