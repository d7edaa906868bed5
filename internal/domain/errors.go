package domain

import (
	"errors"
	"fmt"
)

// Filesystem errors - 檔案系統層錯誤
var (
	// ErrNotFound indicates the requested path does not exist
	ErrNotFound = errors.New("path not found")

	// ErrAlreadyExists indicates the path already exists
	ErrAlreadyExists = errors.New("path already exists")

	// ErrPermissionDenied indicates insufficient permissions
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotFile indicates expected a regular file
	ErrNotFile = errors.New("not a regular file")

	// ErrTimeout indicates a read did not finish within the allowed time
	ErrTimeout = errors.New("operation timed out")
)

var fsSentinels = []error{ErrNotFound, ErrAlreadyExists, ErrPermissionDenied, ErrNotDirectory, ErrNotFile, ErrTimeout}

// IsDomainError reports whether err already wraps a filesystem sentinel
func IsDomainError(err error) bool {
	for _, s := range fsSentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// Run errors - 執行層錯誤
var (
	// ErrReportWrite indicates the report document could not be persisted
	ErrReportWrite = errors.New("cannot write report")

	// ErrLockHeld indicates another run is writing the same report
	ErrLockHeld = errors.New("report output is locked by another run")
)

// Config errors - 設定檔錯誤
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)

// UnreadableError reports a file whose content could not be read.
// It unwraps to the mapped sentinel (ErrPermissionDenied, ErrNotFound, ErrTimeout...).
type UnreadableError struct {
	Path string
	Op   string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() error {
	return e.Err
}

// IsUnreadable checks if err is an UnreadableError
func IsUnreadable(err error) bool {
	var ue *UnreadableError
	return errors.As(err, &ue)
}
