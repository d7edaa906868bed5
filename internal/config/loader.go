package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Ning0612/storeopt/internal/core/checksum"
	"github.com/Ning0612/storeopt/internal/core/classify"
	"github.com/Ning0612/storeopt/internal/core/structure"
	"github.com/Ning0612/storeopt/internal/domain"
)

// EnvPrefix prefixes environment overrides (STOREOPT_SCAN_WORKERS=4)
const EnvPrefix = "STOREOPT"

// DefaultReportPath is the report file written when output.path is unset
const DefaultReportPath = "storage_optimization_report.json"

// DefaultConfigPaths returns the default paths to search for storeopt.yaml
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "storeopt"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".storeopt"))
	}

	return paths
}

// DefaultHistoryDir is where the history database lives unless configured
func DefaultHistoryDir() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "storeopt")
	}
	return ".storeopt"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.root", ".")
	v.SetDefault("scan.exclude", []string{})
	v.SetDefault("scan.workers", 8)
	v.SetDefault("scan.hash_timeout", 30*time.Second)
	v.SetDefault("scan.hash_algorithm", string(checksum.SHA256))
	v.SetDefault("scan.chunk_size", checksum.DefaultChunkSize)

	v.SetDefault("compression.extensions", classify.DefaultCompressibleExtensions())
	v.SetDefault("compression.min_size", classify.DefaultMinCompressSize)
	v.SetDefault("compression.level", -1)
	v.SetDefault("compression.suffix", ".gz")

	v.SetDefault("offload.keywords", classify.DefaultOffloadKeywords())

	buckets := make(map[string]any)
	for name, b := range structure.DefaultBuckets() {
		buckets[name] = map[string]any{
			"description": b.Description,
			"contents":    b.Contents,
		}
	}
	v.SetDefault("structure.max_depth", structure.DefaultMaxDepth)
	v.SetDefault("structure.buckets", buckets)
	v.SetDefault("structure.migration_steps", structure.DefaultMigrationSteps())

	v.SetDefault("output.path", DefaultReportPath)
	v.SetDefault("output.format", FormatJSON)
	v.SetDefault("output.metrics_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.mask_home", false)
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size_mb", 10)
	v.SetDefault("logging.file.max_age_days", 30)
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.dir", DefaultHistoryDir())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in configuration with environment overrides applied
func Default() (*Config, error) {
	return decode(newViper(), nil)
}

// Load reads a configuration file.
// If path is empty, default locations are searched for storeopt.yaml and a
// missing file falls back to defaults. An explicit path must exist.
func Load(path string) (*Config, error) {
	return LoadWith(path, nil)
}

// LoadWith is Load with overrides applied last, keyed by dotted config key.
// Command line flags use it to take precedence over file and environment.
func LoadWith(path string, overrides map[string]any) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storeopt")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		switch {
		case missing && path != "":
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		case missing:
			// nothing in the search path: defaults apply
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
	}

	return decode(v, overrides)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return decode(v, nil)
}

func decode(v *viper.Viper, overrides map[string]any) (*Config, error) {
	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg.Scan.Root = ExpandPath(cfg.Scan.Root)
	cfg.Output.Path = ExpandPath(cfg.Output.Path)
	cfg.Output.MetricsFile = ExpandPath(cfg.Output.MetricsFile)
	cfg.History.Dir = ExpandPath(cfg.History.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
