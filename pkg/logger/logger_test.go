package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggersSplitStreams(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer

	loggers, err := New("info", &infoBuf, &errBuf)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	loggers.InfoLogger.Info().Msg("server started")
	loggers.ErrorLogger.Error().Msg("query failed")

	if !strings.Contains(infoBuf.String(), "server started") {
		t.Errorf("Info output should contain message, got: %s", infoBuf.String())
	}
	if strings.Contains(infoBuf.String(), "query failed") {
		t.Errorf("Info output should not contain error message, got: %s", infoBuf.String())
	}
	if !strings.Contains(errBuf.String(), `"level":"error"`) {
		t.Errorf("Error output should have error level, got: %s", errBuf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	loggers, err := New("warn", &buf, &buf)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	loggers.InfoLogger.Info().Msg("hidden")
	loggers.InfoLogger.Warn().Msg("visible")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("Info message should be filtered at warn level, got: %s", output)
	}
	if !strings.Contains(output, "visible") {
		t.Errorf("Warn message should be logged, got: %s", output)
	}
}

func TestEmptyLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer

	loggers, err := New("", &buf, &buf)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	loggers.InfoLogger.Debug().Msg("debug message")
	if buf.Len() != 0 {
		t.Errorf("Debug should be filtered by default, got: %s", buf.String())
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, err := New("loud", &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestSetupFileLoggerRequiresPath(t *testing.T) {
	if _, err := SetupFileLogger("info", FileConfig{}); err == nil {
		t.Error("Expected error for empty path")
	}
}
