// Package scheduler drives repeated analysis runs for the --every mode.
package scheduler

import (
	"context"
	"time"
)

type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error

	// Done is closed once the loop has exited, by Stop or by ctx cancellation
	Done() <-chan struct{}

	Status() *Status
}

// Status is a point-in-time copy of the scheduler counters
type Status struct {
	Running        bool
	LastRunTime    time.Time
	NextRunTime    time.Time
	TotalRuns      int
	SuccessfulRuns int
	FailedRuns     int
	LastError      string // empty after a successful run
}

type Config struct {
	// Interval is measured between run starts
	Interval time.Duration

	// RunImmediately starts the first run without waiting a full interval
	RunImmediately bool
}

// ScanRunner executes one self-contained analysis run
type ScanRunner interface {
	RunScan(ctx context.Context) error
}

// RunnerFunc adapts a plain function to ScanRunner
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) RunScan(ctx context.Context) error {
	return f(ctx)
}
