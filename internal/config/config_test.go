package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/storeopt/internal/domain"
	"github.com/Ning0612/storeopt/internal/logger"
)

// isolate keeps user config directories out of the search path
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return home
}

func TestDefault(t *testing.T) {
	isolate(t)

	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Scan.Root)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, 30*time.Second, cfg.Scan.HashTimeout)
	assert.Equal(t, "sha256", cfg.Scan.HashAlgorithm)
	assert.Equal(t, 4096, cfg.Scan.ChunkSize)

	assert.Contains(t, cfg.Compression.Extensions, ".json")
	assert.Contains(t, cfg.Compression.Extensions, ".config")
	assert.Equal(t, int64(1024), cfg.Compression.MinSize)
	assert.Equal(t, ".gz", cfg.Compression.Suffix)

	assert.ElementsMatch(t,
		[]string{"backup", "cache", "archive", "old", "temp", "previous", "snapshot"},
		cfg.Offload.Keywords)

	assert.Equal(t, 2, cfg.Structure.MaxDepth)
	assert.Len(t, cfg.Structure.Buckets, 6)
	assert.Equal(t, "Log files", cfg.Structure.Buckets[domain.BucketLogs].Description)
	assert.Equal(t, []string{"logs/"}, cfg.Structure.Buckets[domain.BucketLogs].Contents)
	assert.Len(t, cfg.Structure.MigrationSteps, 6)

	assert.Equal(t, DefaultReportPath, cfg.Output.Path)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.False(t, cfg.History.Enabled)
}

func TestLoadFromString(t *testing.T) {
	isolate(t)

	cfg, err := LoadFromString(`
scan:
  root: /data
  workers: 2
  hash_timeout: 5s
  exclude: ["node_modules/", "*.tmp"]
compression:
  extensions: [".JSON", ".yaml"]
  min_size: 10
offload:
  keywords: ["Trash"]
structure:
  max_depth: 4
output:
  format: yaml
`)
	require.NoError(t, err)

	assert.Equal(t, "/data", cfg.Scan.Root)
	assert.Equal(t, 2, cfg.Scan.Workers)
	assert.Equal(t, 5*time.Second, cfg.Scan.HashTimeout)
	assert.Equal(t, []string{"node_modules/", "*.tmp"}, cfg.Scan.Exclude)
	assert.Equal(t, []string{".json", ".yaml"}, cfg.Compression.Extensions)
	assert.Equal(t, int64(10), cfg.Compression.MinSize)
	assert.Equal(t, []string{"trash"}, cfg.Offload.Keywords)
	assert.Equal(t, 4, cfg.Structure.MaxDepth)
	assert.Equal(t, FormatYAML, cfg.Output.Format)
	// untouched keys keep their defaults
	assert.Len(t, cfg.Structure.Buckets, 6)
}

func TestLoadFromString_Invalid(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		yaml string
	}{
		{"zero workers", "scan: {workers: 0}"},
		{"negative chunk", "scan: {chunk_size: -1}"},
		{"bad algorithm", "scan: {hash_algorithm: crc32}"},
		{"extension without dot", "compression: {extensions: [json]}"},
		{"negative min size", "compression: {min_size: -5}"},
		{"level out of range", "compression: {level: 12}"},
		{"empty keyword", "offload: {keywords: [\"  \"]}"},
		{"negative depth", "structure: {max_depth: -1}"},
		{"bad format", "output: {format: xml}"},
		{"bad log level", "logging: {level: loud}"},
		{"file logging without path", "logging: {file: {enabled: true}}"},
		{"malformed yaml", "scan: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.yaml)
			assert.ErrorIs(t, err, domain.ErrConfigInvalid)
		})
	}
}

func TestValidate_RequiresCanonicalBuckets(t *testing.T) {
	isolate(t)

	cfg, err := Default()
	require.NoError(t, err)

	delete(cfg.Structure.Buckets, domain.BucketCloudSync)
	assert.ErrorIs(t, cfg.Validate(), domain.ErrConfigInvalid)

	cfg.Structure.Buckets[domain.BucketCloudSync] = domain.ProposedBucket{Description: "sync"}
	cfg.Structure.Buckets["media"] = domain.ProposedBucket{Description: "extra buckets are fine"}
	assert.NoError(t, cfg.Validate())
}

func TestLoad_SearchPathMissingUsesDefaults(t *testing.T) {
	isolate(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Scan.Workers)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoad_FileEnvAndOverrides(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "storeopt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  workers: 3\n  chunk_size: 8192\noutput:\n  path: out.json\n"), 0644))

	t.Setenv("STOREOPT_SCAN_CHUNK_SIZE", "1024")

	cfg, err := LoadWith(path, map[string]any{"output.path": "override.yaml", "output.format": "yaml"})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Scan.Workers)
	assert.Equal(t, 1024, cfg.Scan.ChunkSize, "environment beats file")
	assert.Equal(t, "override.yaml", cfg.Output.Path, "overrides beat file")
	assert.Equal(t, FormatYAML, cfg.Output.Format)
}

func TestLoggerConfig(t *testing.T) {
	isolate(t)

	cfg, err := LoadFromString("logging: {level: debug, format: json, mask_home: true, file: {enabled: true, path: /tmp/s.log}}")
	require.NoError(t, err)

	lc := cfg.LoggerConfig()
	assert.Equal(t, logger.LevelDebug, lc.Level)
	assert.Equal(t, logger.FormatJSON, lc.Format)
	assert.True(t, lc.MaskHome)
	require.Len(t, lc.Outputs, 2)
	assert.Equal(t, logger.OutputStderr, lc.Outputs[0].Type)
	assert.Equal(t, logger.OutputFile, lc.Outputs[1].Type)
	assert.Equal(t, "/tmp/s.log", lc.File.Path)
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)
	t.Setenv("STOREOPT_TEST_DIR", "/srv/data")

	assert.Equal(t, filepath.Join(home, "reports"), ExpandPath("~/reports"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/srv/data/x", ExpandPath("$STOREOPT_TEST_DIR/x"))
	assert.Equal(t, "", ExpandPath(""))
}
