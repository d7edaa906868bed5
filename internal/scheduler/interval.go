package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ning0612/storeopt/internal/logger"
)

var (
	errAlreadyRunning = errors.New("scheduler is already running")
	errNotRunning     = errors.New("scheduler is not running")
	errStopped        = errors.New("scheduler cannot be restarted after stop")
)

type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseStopped
)

// IntervalScheduler re-runs the analysis on a time.Ticker.
// Runs never overlap: a tick that arrives during a run is dropped by the ticker.
// An IntervalScheduler is single-use; once its loop exits it cannot be started again.
type IntervalScheduler struct {
	cfg    Config
	runner ScanRunner

	mu     sync.RWMutex
	phase  phase
	cancel context.CancelFunc
	done   chan struct{}
	status Status
}

func NewIntervalScheduler(cfg Config, runner ScanRunner) (*IntervalScheduler, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	if runner == nil {
		return nil, errors.New("scan runner cannot be nil")
	}

	return &IntervalScheduler{
		cfg:    cfg,
		runner: runner,
		done:   make(chan struct{}),
	}, nil
}

// Start launches the loop. Cancelling ctx ends the loop and aborts the in-flight run.
func (s *IntervalScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case phaseRunning:
		return errAlreadyRunning
	case phaseStopped:
		return errStopped
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.phase = phaseRunning
	s.status.Running = true
	s.status.NextRunTime = time.Now().Add(s.cfg.Interval)

	go s.loop(loopCtx)
	return nil
}

func (s *IntervalScheduler) loop(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.phase = phaseStopped
		s.status.Running = false
		s.mu.Unlock()
		s.cancel()
		close(s.done)
	}()

	if s.cfg.RunImmediately {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *IntervalScheduler) tick(ctx context.Context) {
	now := time.Now()
	s.mu.Lock()
	s.status.TotalRuns++
	s.status.LastRunTime = now
	s.status.NextRunTime = now.Add(s.cfg.Interval)
	n := s.status.TotalRuns
	s.mu.Unlock()

	err := s.runner.RunScan(ctx)

	s.mu.Lock()
	if err != nil {
		s.status.FailedRuns++
		s.status.LastError = err.Error()
	} else {
		s.status.SuccessfulRuns++
		s.status.LastError = ""
	}
	next := s.status.NextRunTime
	s.mu.Unlock()

	if err != nil {
		logger.Get().Error("scheduled run failed", "run", n, "error", err)
		return
	}
	logger.Get().Debug("scheduled run finished", "run", n, "next", next)
}

// Stop cancels the loop and blocks until it has exited
func (s *IntervalScheduler) Stop() error {
	s.mu.RLock()
	if s.phase != phaseRunning {
		s.mu.RUnlock()
		return errNotRunning
	}
	cancel := s.cancel
	s.mu.RUnlock()

	cancel()
	<-s.done
	return nil
}

func (s *IntervalScheduler) Done() <-chan struct{} {
	return s.done
}

func (s *IntervalScheduler) Status() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.status
	return &snapshot
}
