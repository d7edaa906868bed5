package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ning0612/storeopt/internal/scheduler"
	"github.com/Ning0612/storeopt/internal/state"
)

// PeriodicService re-runs the analysis on an interval until stopped
type PeriodicService struct {
	mu        sync.RWMutex
	analyzer  *AnalyzerService
	scheduler scheduler.Scheduler
}

// PeriodicStatus represents the current state of the periodic runs
type PeriodicStatus struct {
	Running        bool
	SchedulerStats *scheduler.Status
	LastRun        *state.RunRecord
}

// NewPeriodicService wraps an analyzer; each tick is one Analyze of the configured root
func NewPeriodicService(analyzer *AnalyzerService) (*PeriodicService, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	return &PeriodicService{analyzer: analyzer}, nil
}

// Start runs the first analysis immediately and then every interval
func (p *PeriodicService) Start(ctx context.Context, interval time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scheduler != nil {
		return fmt.Errorf("periodic analysis is already running")
	}

	sched, err := scheduler.NewIntervalScheduler(scheduler.Config{
		Interval:       interval,
		RunImmediately: true,
	}, p.analyzer)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	p.scheduler = sched
	return nil
}

// Wait blocks until the scheduler exits, by Stop or cancellation of the
// context passed to Start
func (p *PeriodicService) Wait() {
	p.mu.RLock()
	sched := p.scheduler
	p.mu.RUnlock()
	if sched == nil {
		return
	}
	<-sched.Done()
}

// Stop stops the periodic runs, interrupting a run in progress
func (p *PeriodicService) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scheduler == nil {
		return fmt.Errorf("periodic analysis is not running")
	}

	if err := p.scheduler.Stop(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	p.scheduler = nil
	return nil
}

// Status returns the current scheduler statistics and the last recorded run
func (p *PeriodicService) Status() *PeriodicStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := &PeriodicStatus{}
	if p.scheduler != nil {
		status.SchedulerStats = p.scheduler.Status()
		status.Running = status.SchedulerStats.Running
	}

	if h := p.analyzer.History(); h != nil {
		history, err := h.GetAllHistory(1)
		if err == nil && len(history) > 0 {
			status.LastRun = &history[0]
		}
	}

	return status
}
