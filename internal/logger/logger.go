package logger

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// LegacyEnvVar 設為 "true" 時改用 fmt 版 logger
const LegacyEnvVar = "STOREOPT_USE_LEGACY_LOGGER"

var errAlreadyInitialized = errors.New("logger already initialized; call Shutdown() before re-initializing")

// global 保存行程層級的 logger；active 為 nil 表示尚未初始化
var global struct {
	sync.RWMutex
	active Logger
}

// Init 依 config 建立全域 logger，重複呼叫會回傳錯誤
func Init(config Config) error {
	global.Lock()
	defer global.Unlock()

	if global.active != nil {
		return errAlreadyInitialized
	}

	l, err := build(config)
	if err != nil {
		return err
	}
	global.active = l
	return nil
}

func build(config Config) (Logger, error) {
	if os.Getenv(LegacyEnvVar) == "true" {
		legacy := NewLegacyLogger(os.Stderr)
		legacy.SetLevel(config.Level)
		return legacy, nil
	}

	l, err := NewSlogLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create slog logger: %w", err)
	}
	return l, nil
}

// Get 取得全域 logger；未初始化時回傳 NullLogger
func Get() Logger {
	global.RLock()
	defer global.RUnlock()

	if global.active == nil {
		return &NullLogger{}
	}
	return global.active
}

func With(args ...any) Logger {
	return Get().With(args...)
}

func Sync() error {
	return Get().Sync()
}

// Shutdown 關閉全域 logger，之後可再次 Init
func Shutdown() error {
	global.Lock()
	l := global.active
	global.active = nil
	global.Unlock() // 關閉可能寫檔，不持有鎖

	if l == nil {
		return nil
	}
	return l.Shutdown()
}

// NullLogger 丟棄所有輸出
type NullLogger struct{}

func (*NullLogger) Debug(string, ...any) {}
func (*NullLogger) Info(string, ...any)  {}
func (*NullLogger) Warn(string, ...any)  {}
func (*NullLogger) Error(string, ...any) {}
func (n *NullLogger) With(...any) Logger { return n }
func (*NullLogger) Sync() error          { return nil }
func (*NullLogger) Shutdown() error      { return nil }
