// Package lock guards a report path so two runs never write the same report.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Ning0612/storeopt/internal/domain"
)

const (
	// Suffix is appended to the report path to form the lock path
	Suffix = ".lock"

	// DefaultStaleTimeout only applies to locks written on another host
	DefaultStaleTimeout = 30 * time.Minute
)

var errStolen = errors.New("lock was stolen by another process")

func PathFor(reportPath string) string {
	return reportPath + Suffix
}

// Holder is the JSON body of a lock file
type Holder struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartTime time.Time `json:"start_time"`
	RunID     string    `json:"run_id,omitempty"`
	Root      string    `json:"root,omitempty"`
}

// stale reports a holder that can no longer be running.
// A same-host holder is stale only when its process is gone;
// foreign hosts cannot be probed, so they expire after staleAfter.
func (h *Holder) stale(host string, staleAfter time.Duration) bool {
	if h.Hostname == host {
		return !processAlive(h.PID)
	}
	return time.Since(h.StartTime) > staleAfter
}

func (h *Holder) sameAs(o *Holder) bool {
	return h.PID == o.PID &&
		h.Hostname == o.Hostname &&
		h.StartTime.Equal(o.StartTime) &&
		h.RunID == o.RunID
}

// FileLock is a single-holder lock file next to the report.
// Not safe for concurrent use; each run creates its own.
type FileLock struct {
	path       string
	host       string
	staleAfter time.Duration
	held       *Holder
}

func NewFileLock(reportPath string) (*FileLock, error) {
	if reportPath == "" {
		return nil, errors.New("report path cannot be empty")
	}

	abs, err := filepath.Abs(reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	host, _ := os.Hostname()
	return &FileLock{
		path:       PathFor(abs),
		host:       host,
		staleAfter: DefaultStaleTimeout,
	}, nil
}

func (l *FileLock) Path() string {
	return l.path
}

func (l *FileLock) SetStaleTimeout(d time.Duration) {
	l.staleAfter = d
}

// Acquire takes the lock for one run, replacing a stale lock file if present.
// A held lock returns a *HeldError.
func (l *FileLock) Acquire(runID, root string) error {
	if l.held != nil {
		return fmt.Errorf("lock %s already acquired by run %s", l.path, l.held.RunID)
	}

	if existing, err := l.load(); err == nil {
		if !existing.stale(l.host, l.staleAfter) {
			return &HeldError{Holder: existing}
		}
		if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove stale lock: %w", err)
		}
	}

	me := &Holder{
		PID:       os.Getpid(),
		Hostname:  l.host,
		StartTime: time.Now(),
		RunID:     runID,
		Root:      root,
	}

	if err := l.create(me); err != nil {
		if errors.Is(err, fs.ErrExist) {
			// lost the race to another process
			holder, _ := l.load()
			return &HeldError{Holder: holder}
		}
		return err
	}

	l.held = me
	return nil
}

// create writes h with O_EXCL so only one process can win
func (l *FileLock) create(h *Holder) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		os.Remove(l.path)
		return fmt.Errorf("failed to write lock info: %w", err)
	}
	return f.Close()
}

// Release removes the lock file if this instance still owns it
func (l *FileLock) Release() error {
	mine := l.held
	if mine == nil {
		return nil
	}
	l.held = nil

	current, err := l.load()
	if err != nil {
		return nil // already gone
	}
	if !current.sameAs(mine) {
		return errStolen
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// IsLocked reports whether a live lock file exists
func (l *FileLock) IsLocked() bool {
	_, err := l.CurrentHolder()
	return err == nil
}

// CurrentHolder returns the live holder, or an error if the lock is free or stale
func (l *FileLock) CurrentHolder() (*Holder, error) {
	h, err := l.load()
	if err != nil {
		return nil, err
	}
	if h.stale(l.host, l.staleAfter) {
		return nil, errors.New("lock is stale")
	}
	return h, nil
}

func (l *FileLock) load() (*Holder, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}

	var h Holder
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("invalid lock file format: %w", err)
	}
	return &h, nil
}

// HeldError reports a lock owned by another live run. It unwraps to domain.ErrLockHeld.
type HeldError struct {
	Holder *Holder // nil if the holder could not be read
}

func (e *HeldError) Error() string {
	h := e.Holder
	if h == nil {
		return "cannot acquire lock: held by another process"
	}
	return fmt.Sprintf("cannot acquire lock: held by PID %d on %s since %s (run %s on %s)",
		h.PID, h.Hostname, h.StartTime.Format(time.RFC3339), h.RunID, h.Root)
}

func (e *HeldError) Unwrap() error {
	return domain.ErrLockHeld
}
