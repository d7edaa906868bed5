package logger

import (
	"io"
	"strings"
)

// Logger 是整個 storeopt 共用的日誌介面
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Sync() error
	Shutdown() error
}

// Level 日誌級別
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// "warning" is accepted on input but never printed
var levelAliases = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLevel maps a level name to a Level. Unknown names fall back to info.
func ParseLevel(s string) Level {
	if l, ok := levelAliases[strings.ToLower(s)]; ok {
		return l
	}
	return LevelInfo
}

func ValidLevel(s string) bool {
	_, ok := levelAliases[strings.ToLower(s)]
	return ok
}

// Format 日誌輸出格式
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseFormat maps a format name to a Format. Anything but "json" is text.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, "json") {
		return FormatJSON
	}
	return FormatText
}

func ValidFormat(s string) bool {
	return strings.EqualFold(s, "json") || strings.EqualFold(s, "text")
}

// Output 日誌寫入目標
type Output int

const (
	OutputStdout Output = iota
	OutputStderr
	OutputFile
)

// Config 描述一個 logger 的級別、格式與輸出
type Config struct {
	Level   Level
	Format  Format
	Outputs []OutputConfig
	File    FileConfig

	// MaskHome 把家目錄替換成 ~，預設關閉
	MaskHome bool
}

// OutputConfig 單一輸出；Writer 不為 nil 時取代預設目標
type OutputConfig struct {
	Type   Output
	Writer io.Writer
}

// FileConfig 是 lumberjack 輪替設定
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}
