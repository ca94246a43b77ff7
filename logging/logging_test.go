package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/fizzify/fizzify/logging"
)

func TestSetup(t *testing.T) {
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	t.Run("development uses text output", func(t *testing.T) {
		var buf bytes.Buffer
		logging.Setup("development", "INFO", &buf)

		slog.Info("hello")

		if out := buf.String(); !strings.Contains(out, "msg=hello") {
			t.Errorf("output = %q, want text format", out)
		}
	})

	t.Run("production uses json output", func(t *testing.T) {
		var buf bytes.Buffer
		logging.Setup("production", "INFO", &buf)

		slog.Info("hello")

		var record map[string]any
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("output %q is not json: %v", buf.String(), err)
		}
		if record["msg"] != "hello" {
			t.Errorf("msg = %v, want hello", record["msg"])
		}
	})

	t.Run("level filters records", func(t *testing.T) {
		var buf bytes.Buffer
		logging.Setup("development", "ERROR", &buf)

		slog.Info("dropped")
		if buf.Len() != 0 {
			t.Errorf("info record should be dropped at error level, got %q", buf.String())
		}

		slog.Error("kept")
		if !strings.Contains(buf.String(), "msg=kept") {
			t.Errorf("error record missing, got %q", buf.String())
		}
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logging.Setup("development", "whatever", &buf)

		slog.Debug("dropped")
		if buf.Len() != 0 {
			t.Errorf("debug record should be dropped at info level, got %q", buf.String())
		}
	})
}
