// Package metrics exposes the figures of one analysis run as Prometheus gauges.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Ning0612/storeopt/internal/domain"
)

// Run holds the gauges of a single run. Each run owns its own registry, so
// concurrent runs against different roots never share series.
type Run struct {
	registry *prometheus.Registry

	scannedBytes          prometheus.Gauge
	filesScanned          prometheus.Gauge
	duplicateGroups       prometheus.Gauge
	duplicateWastedBytes  prometheus.Gauge
	compressionCandidates prometheus.Gauge
	offloadCandidates     prometheus.Gauge
	hashFailures          prometheus.Gauge
	scanDuration          prometheus.Gauge
	lastRun               prometheus.Gauge
}

// NewRun registers the gauges of one run, labelled with its root
func NewRun(root string) *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := prometheus.Labels{"root": root}

	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	return &Run{
		registry:              reg,
		scannedBytes:          gauge("storeopt_scanned_bytes", "Total size of the scanned tree in bytes"),
		filesScanned:          gauge("storeopt_files_scanned", "Number of regular files visited"),
		duplicateGroups:       gauge("storeopt_duplicate_groups", "Number of duplicate sets"),
		duplicateWastedBytes:  gauge("storeopt_duplicate_wasted_bytes", "Bytes reclaimable by removing duplicates"),
		compressionCandidates: gauge("storeopt_compression_candidates", "Number of compression candidates"),
		offloadCandidates:     gauge("storeopt_offload_candidates", "Number of offload candidates"),
		hashFailures:          gauge("storeopt_hash_failures", "Number of files that could not be hashed"),
		scanDuration:          gauge("storeopt_scan_duration_seconds", "Wall time of the analysis"),
		lastRun:               gauge("storeopt_last_run_timestamp_seconds", "Unix time the report was generated"),
	}
}

// Observe copies the report's figures into the gauges
func (m *Run) Observe(r *domain.Report) {
	a := r.Analysis
	m.scannedBytes.Set(float64(a.TotalSize))
	m.filesScanned.Set(float64(a.FilesScanned))
	m.duplicateGroups.Set(float64(a.DuplicateGroups))
	m.duplicateWastedBytes.Set(float64(a.DuplicateSpaceWasted))
	m.compressionCandidates.Set(float64(a.CompressionCandidates))
	m.offloadCandidates.Set(float64(a.OffloadCandidates))
	m.hashFailures.Set(float64(a.HashFailures))
	m.scanDuration.Set(r.Duration.Seconds())
	if !r.GeneratedAt.IsZero() {
		m.lastRun.Set(float64(r.GeneratedAt.Unix()))
	}
}

// Gatherer returns the run's registry
func (m *Run) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the gauges in the text exposition format for
// node_exporter's textfile collector. The file is replaced atomically.
func (m *Run) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
