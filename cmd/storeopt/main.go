package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ning0612/storeopt/internal/config"
	"github.com/Ning0612/storeopt/internal/logger"
)

var version = "dev"

// globalOptions holds the persistent flags and the configuration they load
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool

	// cfg is loaded once per invocation in PersistentPreRunE
	cfg *config.Config
}

// overrides maps the persistent flags that were set onto config keys
func (o *globalOptions) overrides(cmd *cobra.Command) map[string]any {
	overrides := make(map[string]any)
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		overrides["logging.level"] = o.logLevel
	}
	if flags.Changed("log-format") {
		overrides["logging.format"] = o.logFormat
	}
	if o.verbose {
		overrides["logging.level"] = "debug"
	}
	return overrides
}

// configOverrider is implemented by subcommands whose flags map onto config keys
type configOverrider func(cmd *cobra.Command, args []string) map[string]any

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	overriders := make(map[*cobra.Command]configOverrider)

	root := &cobra.Command{
		Use:   "storeopt",
		Short: "Find duplicate, compressible and offloadable files",
		Long: `storeopt scans a directory tree and writes a storage optimization report.

The report lists duplicate file sets and the space they waste, files worth
compressing, files worth moving to secondary storage, the current directory
layout and a proposed logical layout, followed by prioritized recommendations.

Files are never modified unless "analyze --compress --live" is given, and even
then only compressed copies are written next to the originals.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			overrides := opts.overrides(cmd)
			if fn, ok := overriders[cmd]; ok {
				for k, v := range fn(cmd, args) {
					overrides[k] = v
				}
			}

			cfg, err := config.LoadWith(opts.configPath, overrides)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.cfg = cfg

			if err := logger.Init(cfg.LoggerConfig()); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger.Get().Debug("configuration loaded", "config", opts.configPath, "root", cfg.Scan.Root)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file (default: search for storeopt.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	analyze, analyzeOverrides := newAnalyzeCmd(opts)
	overriders[analyze] = analyzeOverrides
	root.AddCommand(analyze)
	root.AddCommand(newHistoryCmd(opts))

	return root
}

// execute runs the CLI with args and always tears the logger down
func execute(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	_ = logger.Shutdown()
	return err
}

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
