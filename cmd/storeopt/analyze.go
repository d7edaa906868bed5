package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ning0612/storeopt/internal/logger"
	"github.com/Ning0612/storeopt/internal/progress"
	"github.com/Ning0612/storeopt/internal/service"
)

type analyzeOptions struct {
	output      string
	format      string
	depth       int
	workers     int
	metricsFile string
	exclude     []string
	history     bool
	compress    bool
	live        bool
	every       time.Duration
	quiet       bool
}

// newAnalyzeCmd returns the analyze command and the mapping of its flags onto config keys
func newAnalyzeCmd(g *globalOptions) (*cobra.Command, configOverrider) {
	o := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [root]",
		Short: "Scan a directory tree and write the optimization report",
		Long: `Scans root (default: the configured scan.root, normally the current
directory) and writes the report document.

With --compress the compress step lists the files it would compress (dry run).
Adding --live writes a gzip copy next to each candidate; originals are kept.

Examples:
  storeopt analyze ~/projects
  storeopt analyze . --format yaml --output report.yaml
  storeopt analyze /data --compress --live
  storeopt analyze /data --every 6h --metrics-file /var/lib/node_exporter/storeopt.prom`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, g, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "", "Report file path")
	f.StringVarP(&o.format, "format", "f", "", "Report format (json, yaml)")
	f.IntVar(&o.depth, "depth", 0, "Depth of the current-structure summary")
	f.IntVarP(&o.workers, "workers", "j", 0, "Files hashed concurrently")
	f.StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	f.StringSliceVarP(&o.exclude, "exclude", "x", nil, "Gitignore-style pattern to skip (repeatable)")
	f.BoolVar(&o.history, "history", false, "Record the run in the history database")
	f.BoolVar(&o.compress, "compress", false, "Run the compress step (dry run unless --live)")
	f.BoolVar(&o.live, "live", false, "With --compress, write compressed copies")
	f.DurationVar(&o.every, "every", 0, "Repeat the analysis on this interval until interrupted")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "Suppress progress lines")

	return cmd, o.overrides
}

// overrides maps the analyze flags that were set onto config keys
func (o *analyzeOptions) overrides(cmd *cobra.Command, args []string) map[string]any {
	overrides := make(map[string]any)
	flags := cmd.Flags()
	if len(args) > 0 {
		overrides["scan.root"] = args[0]
	}
	if flags.Changed("output") {
		overrides["output.path"] = o.output
	}
	if flags.Changed("format") {
		overrides["output.format"] = o.format
	}
	if flags.Changed("depth") {
		overrides["structure.max_depth"] = o.depth
	}
	if flags.Changed("workers") {
		overrides["scan.workers"] = o.workers
	}
	if flags.Changed("metrics-file") {
		overrides["output.metrics_file"] = o.metricsFile
	}
	if flags.Changed("exclude") {
		overrides["scan.exclude"] = o.exclude
	}
	if flags.Changed("history") {
		overrides["history.enabled"] = o.history
	}
	return overrides
}

func runAnalyze(cmd *cobra.Command, g *globalOptions, o *analyzeOptions) error {
	if o.live && !o.compress {
		return fmt.Errorf("--live requires --compress")
	}
	if cmd.Flags().Changed("every") && o.every <= 0 {
		return fmt.Errorf("--every must be positive, got %v", o.every)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.NewAnalyzerService(g.cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if !o.quiet {
		svc.SetProgressReporter(progress.NewConsoleReporter(cmd.ErrOrStderr(), 100))
	}
	svc.SetSummaryWriter(cmd.OutOrStdout())
	switch {
	case o.compress && o.live:
		svc.SetCompressMode(service.CompressLive)
	case o.compress:
		svc.SetCompressMode(service.CompressDryRun)
	}

	if o.every == 0 {
		_, err := svc.Analyze(ctx, g.cfg.Scan.Root)
		return err
	}

	periodic, err := service.NewPeriodicService(svc)
	if err != nil {
		return err
	}
	if err := periodic.Start(ctx, o.every); err != nil {
		return err
	}
	logger.Get().Info("periodic analysis started", "interval", o.every, "root", g.cfg.Scan.Root)

	periodic.Wait()

	if stats := periodic.Status().SchedulerStats; stats != nil {
		logger.Get().Info("periodic analysis stopped",
			"runs", stats.TotalRuns,
			"successful", stats.SuccessfulRuns,
			"failed", stats.FailedRuns,
		)
	}
	return nil
}
