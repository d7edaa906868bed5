package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger 是根 logger，擁有需要關閉的 writers
type SlogLogger struct {
	sanitized
	owned []io.Closer
}

// sinks 收集輸出目標；owned 是 Shutdown 時要關閉的部分
type sinks struct {
	writers []io.Writer
	owned   []io.Closer
}

func (s *sinks) add(w io.Writer, owned bool) {
	s.writers = append(s.writers, w)
	if c, ok := w.(io.Closer); ok && owned {
		s.owned = append(s.owned, c)
	}
}

func (s *sinks) closeAll() error {
	var errs []error
	for _, c := range s.owned {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewSlogLogger 依 config 建立 slog logger。
// 沒有任何輸出時寫到 stderr；stdout 保留給報告摘要。
func NewSlogLogger(config Config) (*SlogLogger, error) {
	var out sinks

	for _, o := range config.Outputs {
		switch o.Type {
		case OutputStdout:
			out.add(orDefault(o.Writer, os.Stdout), o.Writer != nil && !isStdStream(o.Writer))
		case OutputStderr:
			out.add(orDefault(o.Writer, os.Stderr), o.Writer != nil && !isStdStream(o.Writer))
		case OutputFile:
			if !config.File.Enabled {
				continue
			}
			fw, err := rotatingFile(config.File)
			if err != nil {
				out.closeAll()
				return nil, fmt.Errorf("failed to create file writer: %w", err)
			}
			out.add(fw, true)
		}
	}
	if len(out.writers) == 0 {
		out.add(os.Stderr, false)
	}

	opts := &slog.HandlerOptions{Level: slogLevels[config.Level]}
	w := io.MultiWriter(out.writers...)

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	}

	var sopts []SanitizerOption
	if config.MaskHome {
		sopts = append(sopts, WithHomeMasking())
	}

	return &SlogLogger{
		sanitized: sanitized{logger: slog.New(handler), sanitizer: NewSanitizer(sopts...)},
		owned:     out.owned,
	}, nil
}

var slogLevels = map[Level]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

func orDefault(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

func isStdStream(w io.Writer) bool {
	return w == os.Stdout || w == os.Stderr
}

// rotatingFile 以 lumberjack 處理輪替，父目錄不存在時建立
func rotatingFile(fc FileConfig) (*lumberjack.Logger, error) {
	if fc.Path == "" {
		return nil, errors.New("log file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(fc.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.MaxSizeMB,
		MaxAge:     fc.MaxAgeDays,
		MaxBackups: fc.MaxBackups,
		Compress:   fc.Compress,
	}, nil
}

// Shutdown 關閉檔案 writers；之後不可再寫入
func (l *SlogLogger) Shutdown() error {
	var errs []error
	for _, c := range l.owned {
		errs = append(errs, c.Close())
	}
	l.owned = nil
	return errors.Join(errs...)
}

// sanitized 先遮罩再交給 slog。
// With 產生的子 logger 只有這一層，不會重複關閉 writers。
type sanitized struct {
	logger    *slog.Logger
	sanitizer *Sanitizer
}

func (s *sanitized) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !s.logger.Enabled(ctx, level) {
		return
	}
	s.logger.Log(ctx, level, s.sanitizer.Sanitize(msg), s.sanitizer.SanitizeArgs(args)...)
}

func (s *sanitized) Debug(msg string, args ...any) { s.log(slog.LevelDebug, msg, args) }
func (s *sanitized) Info(msg string, args ...any)  { s.log(slog.LevelInfo, msg, args) }
func (s *sanitized) Warn(msg string, args ...any)  { s.log(slog.LevelWarn, msg, args) }
func (s *sanitized) Error(msg string, args ...any) { s.log(slog.LevelError, msg, args) }

func (s *sanitized) With(args ...any) Logger {
	return &sanitized{
		logger:    s.logger.With(s.sanitizer.SanitizeArgs(args)...),
		sanitizer: s.sanitizer,
	}
}

// lumberjack 每次寫入即落盤
func (s *sanitized) Sync() error     { return nil }
func (s *sanitized) Shutdown() error { return nil }
