package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ning0612/storeopt/internal/core/checksum"
	"github.com/Ning0612/storeopt/internal/domain"
	"github.com/Ning0612/storeopt/internal/logger"
	"github.com/Ning0612/storeopt/internal/output"
)

// Config represents the complete configuration for storeopt
type Config struct {
	Scan        ScanConfig        `mapstructure:"scan"`
	Compression CompressionConfig `mapstructure:"compression"`
	Offload     OffloadConfig     `mapstructure:"offload"`
	Structure   StructureConfig   `mapstructure:"structure"`
	Output      OutputConfig      `mapstructure:"output"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	History     HistoryConfig     `mapstructure:"history"`
}

// ScanConfig controls the walk and the hashing pool
type ScanConfig struct {
	Root          string        `mapstructure:"root"`
	Exclude       []string      `mapstructure:"exclude"`
	Workers       int           `mapstructure:"workers"`
	HashTimeout   time.Duration `mapstructure:"hash_timeout"`
	HashAlgorithm string        `mapstructure:"hash_algorithm"`
	ChunkSize     int           `mapstructure:"chunk_size"`
}

// CompressionConfig holds the compression classifier and compressor settings
type CompressionConfig struct {
	Extensions []string `mapstructure:"extensions"`
	MinSize    int64    `mapstructure:"min_size"`
	Level      int      `mapstructure:"level"`
	Suffix     string   `mapstructure:"suffix"`
}

// OffloadConfig holds the offload classifier keywords
type OffloadConfig struct {
	Keywords []string `mapstructure:"keywords"`
}

// StructureConfig controls the structure summary and the proposed layout
type StructureConfig struct {
	MaxDepth       int                              `mapstructure:"max_depth"`
	Buckets        map[string]domain.ProposedBucket `mapstructure:"buckets"`
	MigrationSteps []string                         `mapstructure:"migration_steps"`
}

// Report document formats
const (
	FormatJSON = output.FormatJSON
	FormatYAML = output.FormatYAML
)

// OutputConfig controls where the report goes
type OutputConfig struct {
	Path        string `mapstructure:"path"`
	Format      string `mapstructure:"format"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// LoggingConfig mirrors logger.Config in file-friendly form
type LoggingConfig struct {
	Level    string            `mapstructure:"level"`
	Format   string            `mapstructure:"format"`
	MaskHome bool              `mapstructure:"mask_home"`
	File     LoggingFileConfig `mapstructure:"file"`
}

// LoggingFileConfig configures the rotating log file
type LoggingFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// HistoryConfig controls the optional scan-history store
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// Validate checks the configuration and normalises extensions and keywords
func (c *Config) Validate() error {
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("%w: scan.workers must be positive, got %d", domain.ErrConfigInvalid, c.Scan.Workers)
	}
	if c.Scan.ChunkSize <= 0 {
		return fmt.Errorf("%w: scan.chunk_size must be positive, got %d", domain.ErrConfigInvalid, c.Scan.ChunkSize)
	}
	if c.Scan.HashTimeout < 0 {
		return fmt.Errorf("%w: scan.hash_timeout cannot be negative", domain.ErrConfigInvalid)
	}
	if !checksum.IsSupported(checksum.Algorithm(c.Scan.HashAlgorithm)) {
		return fmt.Errorf("%w: unsupported hash algorithm: %s", domain.ErrConfigInvalid, c.Scan.HashAlgorithm)
	}

	if c.Compression.MinSize < 0 {
		return fmt.Errorf("%w: compression.min_size cannot be negative", domain.ErrConfigInvalid)
	}
	for i, ext := range c.Compression.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: extension %q must start with a dot", domain.ErrConfigInvalid, ext)
		}
		c.Compression.Extensions[i] = strings.ToLower(ext)
	}
	// gzip levels: -2 (huffman only) through 9 (best compression)
	if c.Compression.Level < -2 || c.Compression.Level > 9 {
		return fmt.Errorf("%w: compression.level out of range: %d", domain.ErrConfigInvalid, c.Compression.Level)
	}
	if c.Compression.Suffix == "" {
		return fmt.Errorf("%w: compression.suffix cannot be empty", domain.ErrConfigInvalid)
	}

	for i, kw := range c.Offload.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%w: offload keyword cannot be empty", domain.ErrConfigInvalid)
		}
		c.Offload.Keywords[i] = strings.ToLower(kw)
	}

	if c.Structure.MaxDepth < 0 {
		return fmt.Errorf("%w: structure.max_depth cannot be negative", domain.ErrConfigInvalid)
	}
	for _, name := range domain.CanonicalBuckets() {
		if _, ok := c.Structure.Buckets[name]; !ok {
			return fmt.Errorf("%w: structure.buckets is missing %q", domain.ErrConfigInvalid, name)
		}
	}

	if c.Output.Path == "" {
		return fmt.Errorf("%w: output.path cannot be empty", domain.ErrConfigInvalid)
	}
	switch c.Output.Format {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: unsupported output format: %s", domain.ErrConfigInvalid, c.Output.Format)
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: invalid log level: %s", domain.ErrConfigInvalid, c.Logging.Level)
	}
	if !logger.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("%w: invalid log format: %s", domain.ErrConfigInvalid, c.Logging.Format)
	}
	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		return fmt.Errorf("%w: logging.file.path is required when file logging is enabled", domain.ErrConfigInvalid)
	}

	if c.History.Enabled && c.History.Dir == "" {
		return fmt.Errorf("%w: history.dir is required when history is enabled", domain.ErrConfigInvalid)
	}

	return nil
}

// LoggerConfig converts the logging section for logger.Init.
// Logs always go to stderr; stdout carries the summary.
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.Config{
		Level:    logger.ParseLevel(c.Logging.Level),
		Format:   logger.ParseFormat(c.Logging.Format),
		Outputs:  []logger.OutputConfig{{Type: logger.OutputStderr}},
		MaskHome: c.Logging.MaskHome,
		File: logger.FileConfig{
			Enabled:    c.Logging.File.Enabled,
			Path:       ExpandPath(c.Logging.File.Path),
			MaxSizeMB:  c.Logging.File.MaxSizeMB,
			MaxAgeDays: c.Logging.File.MaxAgeDays,
			MaxBackups: c.Logging.File.MaxBackups,
			Compress:   c.Logging.File.Compress,
		},
	}
	if lc.File.Enabled {
		lc.Outputs = append(lc.Outputs, logger.OutputConfig{Type: logger.OutputFile})
	}
	return lc
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
