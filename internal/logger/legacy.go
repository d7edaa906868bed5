package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// LegacyLogger 舊版 logger（fmt 輸出，用於回退）
// 所有級別都寫入同一個 writer，stdout 保留給摘要輸出
type LegacyLogger struct {
	mu     sync.Mutex
	level  Level
	out    io.Writer
	prefix []any
}

// NewLegacyLogger 建立 legacy logger
func NewLegacyLogger(out io.Writer) *LegacyLogger {
	return &LegacyLogger{level: LevelInfo, out: out}
}

// SetLevel 設定日誌級別
func (l *LegacyLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *LegacyLogger) log(level Level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	all := append(append([]any(nil), l.prefix...), args...)
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(level.String()), msg)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}
	b.WriteByte('\n')
	io.WriteString(l.out, b.String())
}

func (l *LegacyLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *LegacyLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *LegacyLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *LegacyLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }

// With 回傳帶固定欄位的 logger，共用同一個 writer
func (l *LegacyLogger) With(args ...any) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &LegacyLogger{
		level:  l.level,
		out:    l.out,
		prefix: append(append([]any(nil), l.prefix...), args...),
	}
}

func (l *LegacyLogger) Sync() error     { return nil }
func (l *LegacyLogger) Shutdown() error { return nil }
