package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestSlog(t *testing.T, config Config) *SlogLogger {
	t.Helper()
	logger, err := NewSlogLogger(config)
	if err != nil {
		t.Fatalf("NewSlogLogger() error = %v", err)
	}
	t.Cleanup(func() { logger.Shutdown() })
	return logger
}

func TestSlogLogger_Basic(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestSlog(t, bufferConfig(buf, LevelDebug))

	logger.Info("duplicate group found", "digest", "2cf24dba", "members", 2)

	output := buf.String()
	for _, want := range []string{"duplicate group found", "digest=2cf24dba", "members=2"} {
		if !strings.Contains(output, want) {
			t.Errorf("log output missing %q: %s", want, output)
		}
	}
}

func TestSlogLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		logFunc   func(Logger)
		shouldLog bool
	}{
		{"debug at debug level", LevelDebug, func(l Logger) { l.Debug("debug msg") }, true},
		{"debug at info level", LevelInfo, func(l Logger) { l.Debug("debug msg") }, false},
		{"warn at error level", LevelError, func(l Logger) { l.Warn("warn msg") }, false},
		{"error at warn level", LevelWarn, func(l Logger) { l.Error("error msg") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := newTestSlog(t, bufferConfig(buf, tt.level))

			tt.logFunc(logger)

			if hasLog := buf.Len() > 0; hasLog != tt.shouldLog {
				t.Errorf("expected shouldLog=%v, got output=%q", tt.shouldLog, buf.String())
			}
		})
	}
}

func TestSlogLogger_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	config := bufferConfig(buf, LevelInfo)
	config.Format = FormatJSON
	logger := newTestSlog(t, config)

	logger.Info("report written", "path", "out.json")

	output := buf.String()
	if !strings.Contains(output, `"msg":"report written"`) {
		t.Errorf("JSON output missing msg field: %s", output)
	}
	if !strings.Contains(output, `"path":"out.json"`) {
		t.Errorf("JSON output missing path field: %s", output)
	}
}

func TestSlogLogger_WithChildDoesNotOwnWriters(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestSlog(t, bufferConfig(buf, LevelInfo))

	child := logger.With("phase", "structure")
	child.Info("message")
	if err := child.Shutdown(); err != nil {
		t.Errorf("child Shutdown() error = %v", err)
	}

	if !strings.Contains(buf.String(), "phase=structure") {
		t.Errorf("child logger output missing context: %s", buf.String())
	}
}

func TestSlogLogger_Sanitization(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestSlog(t, bufferConfig(buf, LevelInfo))

	logger.Info("config loaded", "api_key", "secret123456")

	if strings.Contains(buf.String(), "secret123456") {
		t.Errorf("log output contains unsanitized key: %s", buf.String())
	}
}

func TestSlogLogger_MaskHome(t *testing.T) {
	path := "/home/alice/data/a.txt"

	buf := &bytes.Buffer{}
	logger := newTestSlog(t, bufferConfig(buf, LevelInfo))
	logger.Info("skipping " + path)
	if !strings.Contains(buf.String(), path) {
		t.Errorf("path should be kept by default: %s", buf.String())
	}

	masked := &bytes.Buffer{}
	config := bufferConfig(masked, LevelInfo)
	config.MaskHome = true
	logger = newTestSlog(t, config)
	logger.Info("skipping " + path)
	if strings.Contains(masked.String(), "alice") {
		t.Errorf("home directory should be masked: %s", masked.String())
	}
}

func TestSlogLogger_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "storeopt.log")

	config := Config{
		Level:  LevelInfo,
		Format: FormatText,
		File: FileConfig{
			Enabled:    true,
			Path:       logPath,
			MaxSizeMB:  1,
			MaxAgeDays: 7,
			MaxBackups: 3,
		},
		Outputs: []OutputConfig{{Type: OutputFile}},
	}

	logger, err := NewSlogLogger(config)
	if err != nil {
		t.Fatalf("NewSlogLogger() error = %v", err)
	}

	logger.Info("test file logging")
	logger.Shutdown()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "test file logging") {
		t.Errorf("log file missing message: %s", string(content))
	}
}

func TestSlogLogger_FileOutputRequiresPath(t *testing.T) {
	config := Config{
		File:    FileConfig{Enabled: true},
		Outputs: []OutputConfig{{Type: OutputFile}},
	}
	if _, err := NewSlogLogger(config); err == nil {
		t.Error("expected error for empty log file path")
	}
}

func TestSlogLogger_MultipleOutputs(t *testing.T) {
	buf1 := &bytes.Buffer{}
	buf2 := &bytes.Buffer{}

	logger := newTestSlog(t, Config{
		Level:  LevelInfo,
		Format: FormatText,
		Outputs: []OutputConfig{
			{Type: OutputStdout, Writer: buf1},
			{Type: OutputStderr, Writer: buf2},
		},
	})

	logger.Info("test multi-output")

	if !strings.Contains(buf1.String(), "test multi-output") {
		t.Errorf("buffer1 missing message")
	}
	if !strings.Contains(buf2.String(), "test multi-output") {
		t.Errorf("buffer2 missing message")
	}
}
