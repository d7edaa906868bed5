//go:build windows

package lock

import (
	"errors"

	"golang.org/x/sys/windows"
)

// processAlive opens pid with the least privilege that still proves existence.
// ERROR_ACCESS_DENIED means the process exists but belongs to someone else.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return errors.Is(err, windows.ERROR_ACCESS_DENIED)
	}
	windows.CloseHandle(handle)
	return true
}
