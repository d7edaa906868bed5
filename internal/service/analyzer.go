package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/Ning0612/storeopt/internal/adapter/local"
	"github.com/Ning0612/storeopt/internal/config"
	"github.com/Ning0612/storeopt/internal/core/checksum"
	"github.com/Ning0612/storeopt/internal/core/classify"
	"github.com/Ning0612/storeopt/internal/core/compress"
	"github.com/Ning0612/storeopt/internal/core/duplicate"
	"github.com/Ning0612/storeopt/internal/core/report"
	"github.com/Ning0612/storeopt/internal/core/structure"
	"github.com/Ning0612/storeopt/internal/core/walker"
	"github.com/Ning0612/storeopt/internal/domain"
	"github.com/Ning0612/storeopt/internal/lock"
	"github.com/Ning0612/storeopt/internal/logger"
	"github.com/Ning0612/storeopt/internal/metrics"
	"github.com/Ning0612/storeopt/internal/output"
	"github.com/Ning0612/storeopt/internal/progress"
	"github.com/Ning0612/storeopt/internal/state"
)

// CompressMode selects whether and how the compress step runs
type CompressMode int

const (
	// CompressOff skips the compress step
	CompressOff CompressMode = iota
	// CompressDryRun lists the intended actions only
	CompressDryRun
	// CompressLive writes the compressed copies
	CompressLive
)

// AnalyzerService runs complete analyses. It holds configuration only;
// everything a run accumulates lives in that run's own state, so Analyze may
// be called concurrently for different roots and outputs.
type AnalyzerService struct {
	config   *config.Config
	reporter progress.Reporter
	summary  io.Writer
	compress CompressMode
	history  *state.Manager
}

// NewAnalyzerService creates a new analyzer service.
// The history store is opened only when history is enabled.
func NewAnalyzerService(cfg *config.Config) (*AnalyzerService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	s := &AnalyzerService{config: cfg}
	if cfg.History.Enabled {
		mgr, err := state.NewManager(cfg.History.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		s.history = mgr
	}
	return s, nil
}

// SetProgressReporter sets the progress reporter for analysis runs
func (s *AnalyzerService) SetProgressReporter(reporter progress.Reporter) {
	s.reporter = reporter
}

// SetSummaryWriter sets where the console summary is printed; nil disables it
func (s *AnalyzerService) SetSummaryWriter(w io.Writer) {
	s.summary = w
}

// SetCompressMode enables the optional compress step
func (s *AnalyzerService) SetCompressMode(mode CompressMode) {
	s.compress = mode
}

// History returns the history store, or nil when history is disabled
func (s *AnalyzerService) History() *state.Manager {
	return s.history
}

// getReporter returns the current progress reporter or a null reporter
func (s *AnalyzerService) getReporter() progress.Reporter {
	if s.reporter != nil {
		return s.reporter
	}
	return progress.NullReporter{}
}

// RunScan analyzes the configured root; it lets the scheduler repeat runs
func (s *AnalyzerService) RunScan(ctx context.Context) error {
	_, err := s.Analyze(ctx, s.config.Scan.Root)
	return err
}

// run is the state owned by one invocation of Analyze
type run struct {
	id      string
	started time.Time
	root    string
	store   *local.Adapter
	log     logger.Logger
	prog    progress.Reporter

	mu        sync.Mutex
	diags     []domain.Diagnostic
	diagnosed map[string]struct{}
}

// diagnose records d once per path; the walker and the structure pass
// both visit an unreadable directory, only the first report is kept
func (r *run) diagnose(d domain.Diagnostic) {
	r.mu.Lock()
	if _, dup := r.diagnosed[d.Path]; dup {
		r.mu.Unlock()
		return
	}
	if r.diagnosed == nil {
		r.diagnosed = make(map[string]struct{})
	}
	r.diagnosed[d.Path] = struct{}{}
	r.diags = append(r.diags, d)
	r.mu.Unlock()
	r.prog.Error(progress.Phase(d.Phase), d.Path, errors.New(d.Message))
}

func (r *run) diagnostics() []domain.Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Analyze scans root, writes the report document and returns the report.
// File and directory level problems become diagnostics; the run fails only
// when the root is unusable, the output is locked, the context is cancelled
// or the report cannot be written. On a write failure the in-memory report
// is still returned alongside the error.
func (s *AnalyzerService) Analyze(ctx context.Context, root string) (*domain.Report, error) {
	cfg := s.config
	if root == "" {
		root = "."
	}

	store, err := local.New(root)
	if err != nil {
		return nil, fmt.Errorf("invalid scan root %s: %w", root, err)
	}
	if _, err := store.ReadDir(ctx, ""); err != nil {
		return nil, fmt.Errorf("cannot read scan root %s: %w", store.Root(), err)
	}

	r := &run{
		id:      uuid.NewString(),
		started: time.Now(),
		root:    store.Root(),
		store:   store,
		prog:    s.getReporter(),
	}
	r.log = logger.With("run_id", r.id, "root", r.root)

	reportPath, err := filepath.Abs(cfg.Output.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid output path %s: %w", cfg.Output.Path, err)
	}

	fileLock, err := lock.NewFileLock(reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output lock: %w", err)
	}
	if err := fileLock.Acquire(r.id, r.root); err != nil {
		return nil, err
	}
	defer func() {
		if err := fileLock.Release(); err != nil {
			r.log.Warn("failed to release output lock", "path", fileLock.Path(), "error", err)
		}
	}()

	r.log.Info("analysis started", "output", reportPath)

	rep, err := s.analyze(ctx, r, reportPath, fileLock.Path())
	if err != nil {
		s.record(r, rep, reportPath, err)
		r.log.Error("analysis failed", "error", err)
		return rep, err
	}

	r.prog.Begin(progress.PhaseReport, 1)
	writer, err := output.NewWriter(afero.NewOsFs(), cfg.Output.Format)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrReportWrite, err)
	} else {
		err = writer.Write(ctx, reportPath, rep)
	}
	r.prog.End(progress.PhaseReport)
	if err != nil {
		s.record(r, rep, reportPath, err)
		r.log.Error("report could not be written", "path", reportPath, "error", err)
		return rep, err
	}
	r.prog.Event(progress.PhaseReport, "report saved to "+reportPath)

	if cfg.Output.MetricsFile != "" {
		m := metrics.NewRun(r.root)
		m.Observe(rep)
		if err := m.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			r.log.Warn("metrics file not written", "path", cfg.Output.MetricsFile, "error", err)
		}
	}

	s.record(r, rep, reportPath, nil)

	if s.summary != nil {
		output.Summary(s.summary, rep)
	}

	r.log.Info("analysis finished",
		"files", rep.Analysis.FilesScanned,
		"duplicate_groups", rep.Analysis.DuplicateGroups,
		"wasted_bytes", rep.Analysis.DuplicateSpaceWasted,
		"duration", rep.Duration,
	)
	return rep, nil
}

// analyze runs every phase and builds the report (before persistence)
func (s *AnalyzerService) analyze(ctx context.Context, r *run, reportPath, lockPath string) (*domain.Report, error) {
	cfg := s.config
	skip := []string{reportPath, lockPath, reportPath + local.TempSuffix}
	if cfg.Output.MetricsFile != "" {
		// the textfile is rewritten after every run; its temp file is renamed before the next walk
		if abs, err := filepath.Abs(cfg.Output.MetricsFile); err == nil {
			skip = append(skip, abs)
		}
	}

	// Walk
	r.prog.Begin(progress.PhaseWalk, 0)
	w := walker.New(r.store, walker.Options{
		Exclude:      cfg.Scan.Exclude,
		SkipPaths:    skip,
		OnDiagnostic: r.diagnose,
	})
	var records []domain.FileRecord
	for rec, err := range w.Files(ctx) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		r.prog.Advance(progress.PhaseWalk, rec.Size)
	}
	r.prog.End(progress.PhaseWalk)

	// Duplicates
	r.prog.Begin(progress.PhaseHash, len(records))
	hasher := checksum.NewHasher(r.store, checksum.Algorithm(cfg.Scan.HashAlgorithm),
		checksum.Options{ChunkSize: cfg.Scan.ChunkSize}, cfg.Scan.HashTimeout)
	detector := duplicate.NewDetector(hasher, duplicate.Options{
		Workers:      cfg.Scan.Workers,
		OnDiagnostic: r.diagnose,
		OnGroup: func(g domain.DuplicateGroup) {
			r.prog.Event(progress.PhaseHash, fmt.Sprintf("found %d duplicates for hash %s", g.Count(), g.Digest.Short()))
		},
		OnHashed: func(rec domain.FileRecord, err error) {
			if err == nil {
				r.prog.Advance(progress.PhaseHash, rec.Size)
			}
		},
	})
	dups, err := detector.Detect(ctx, records)
	if err != nil {
		return nil, err
	}
	r.prog.End(progress.PhaseHash)

	// Classifiers
	r.prog.Begin(progress.PhaseClassify, len(records))
	compressible := classify.Collect(classify.NewCompression(cfg.Compression.Extensions, cfg.Compression.MinSize), records)
	offload := classify.Collect(classify.NewOffload(cfg.Offload.Keywords), records)
	r.prog.Event(progress.PhaseClassify, fmt.Sprintf("%d compression candidates, %d offload candidates",
		compressible.Len(), offload.Len()))
	r.prog.End(progress.PhaseClassify)

	// Structure
	r.prog.Begin(progress.PhaseStructure, 0)
	plan, err := structure.NewAnalyzer(r.store, structure.Options{
		MaxDepth:       cfg.Structure.MaxDepth,
		Exclude:        cfg.Scan.Exclude,
		SkipPaths:      skip,
		Buckets:        cfg.Structure.Buckets,
		MigrationSteps: cfg.Structure.MigrationSteps,
		OnDiagnostic:   r.diagnose,
	}).Plan(ctx)
	if err != nil {
		return nil, err
	}
	r.prog.End(progress.PhaseStructure)

	synth := &report.Synthesizer{}
	rep := synth.Build(report.Input{
		RunID:        r.id,
		Root:         r.root,
		StartedAt:    r.started,
		FilesScanned: len(records),
		Groups:       dups.Groups,
		HashFailures: dups.Failed,
		Compression:  compressible,
		Offload:      offload,
		Plan:         plan,
		Diagnostics:  r.diagnostics(),
	})

	if s.compress != CompressOff {
		outcome, err := s.runCompress(ctx, r, compressible)
		rep.Compression = outcome
		if err != nil {
			return rep, err
		}
	}

	return rep, nil
}

func (s *AnalyzerService) runCompress(ctx context.Context, r *run, candidates *domain.CandidateList) (*domain.CompressionOutcome, error) {
	cfg := s.config.Compression
	dryRun := s.compress != CompressLive

	r.prog.Begin(progress.PhaseCompress, candidates.Len())
	defer r.prog.End(progress.PhaseCompress)

	c, err := compress.New(r.store, compress.Options{
		Level:  cfg.Level,
		Suffix: cfg.Suffix,
		OnResult: func(res domain.CompressionResult) {
			if res.Failed() {
				r.prog.Error(progress.PhaseCompress, res.Source, errors.New(res.Error))
				return
			}
			r.prog.Advance(progress.PhaseCompress, res.OriginalSize)
		},
	})
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, candidates, dryRun)
}

// record stores the run in the history database, if enabled.
// History failures are logged, never propagated.
func (s *AnalyzerService) record(r *run, rep *domain.Report, reportPath string, runErr error) {
	if s.history == nil {
		return
	}

	rec := state.RunRecord{
		RunID:      r.id,
		Root:       r.root,
		StartTime:  r.started,
		EndTime:    time.Now(),
		Status:     state.StatusSuccess,
		ReportPath: reportPath,
	}
	if rep != nil {
		a := rep.Analysis
		rec.FilesScanned = a.FilesScanned
		rec.TotalBytes = a.TotalSize
		rec.DuplicateGroups = a.DuplicateGroups
		rec.WastedBytes = a.DuplicateSpaceWasted
		rec.CompressionCandidates = a.CompressionCandidates
		rec.OffloadCandidates = a.OffloadCandidates
		rec.HashFailures = a.HashFailures
	}
	if runErr != nil {
		rec.Status = state.StatusFailed
		rec.Error = runErr.Error()
	}

	if err := s.history.SaveRun(rec); err != nil {
		r.log.Warn("failed to record run history", "error", err)
	}
}

// Close releases all resources
func (s *AnalyzerService) Close() error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}
