package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/storeopt/internal/state"
)

// newHistoryCmd lists recorded runs
func newHistoryCmd(g *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [root]",
		Short: "List recorded analysis runs",
		Long: `Lists runs recorded with history enabled (history.enabled or analyze --history),
newest first. With a root argument only runs of that directory are shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, g, args, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func runHistory(cmd *cobra.Command, g *globalOptions, args []string, limit int) error {
	mgr, err := state.NewManager(g.cfg.History.Dir)
	if err != nil {
		return err
	}
	defer mgr.Close()

	var runs []state.RunRecord
	if len(args) > 0 {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid root %s: %w", args[0], err)
		}
		runs, err = mgr.GetHistory(root, limit)
		if err != nil {
			return err
		}
	} else {
		runs, err = mgr.GetAllHistory(limit)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tROOT\tFILES\tSIZE\tDUP SETS\tWASTED\tDURATION")
	for _, r := range runs {
		status := r.Status
		if r.Error != "" {
			status += ": " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
			humanize.Time(r.StartTime),
			status,
			r.Root,
			r.FilesScanned,
			humanize.IBytes(uint64(r.TotalBytes)),
			r.DuplicateGroups,
			humanize.IBytes(uint64(r.WastedBytes)),
			r.Duration().Round(time.Millisecond),
		)
	}
	return tw.Flush()
}
