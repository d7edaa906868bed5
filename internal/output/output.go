// Package output persists the report document and prints the console summary.
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Ning0612/storeopt/internal/adapter/local"
	"github.com/Ning0612/storeopt/internal/domain"
)

// Document formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode serializes the report in the given format
func Encode(w io.Writer, r *domain.Report, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// Writer persists reports to a filesystem
type Writer struct {
	fs     afero.Fs
	format string
}

// NewWriter creates a writer for the given format over fs
func NewWriter(fs afero.Fs, format string) (*Writer, error) {
	switch format {
	case FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{fs: fs, format: format}, nil
}

// Write encodes r and replaces path atomically. The document is encoded in
// full before anything touches the filesystem, so a failed run never leaves
// a partial report behind. Every failure wraps domain.ErrReportWrite.
func (w *Writer) Write(ctx context.Context, path string, r *domain.Report) error {
	var buf bytes.Buffer
	if err := Encode(&buf, r, w.format); err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrReportWrite, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrReportWrite, err)
	}
	dir := filepath.Dir(abs)
	if err := w.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrReportWrite, dir, local.MapError(err))
	}

	store, err := local.NewWithFs(w.fs, dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrReportWrite, dir, err)
	}
	if err := store.WriteFile(ctx, filepath.Base(abs), &buf); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrReportWrite, abs, err)
	}
	return nil
}

// Summary prints the human-readable run summary
func Summary(w io.Writer, r *domain.Report) {
	a := r.Analysis
	fmt.Fprintln(w, "Optimization summary:")
	fmt.Fprintf(w, "  Files scanned:                    %d (%s)\n", a.FilesScanned, humanize.IBytes(uint64(a.TotalSize)))
	fmt.Fprintf(w, "  Duplicate sets found:             %d\n", a.DuplicateGroups)
	fmt.Fprintf(w, "  Files suitable for compression:   %d\n", a.CompressionCandidates)
	fmt.Fprintf(w, "  Files suitable for offloading:    %d\n", a.OffloadCandidates)
	fmt.Fprintf(w, "  Space reclaimable by dedup:       %s\n", humanize.IBytes(uint64(a.DuplicateSpaceWasted)))
	if a.HashFailures > 0 || len(r.Diagnostics) > 0 {
		fmt.Fprintf(w, "  Skipped entries:                  %d\n", len(r.Diagnostics))
	}

	if c := r.Compression; c != nil {
		if c.DryRun {
			fmt.Fprintf(w, "  Compression (dry run):            %d files would be compressed\n", len(c.Actions))
		} else {
			fmt.Fprintf(w, "  Compression:                      %d compressed, %d failed, %s saved\n",
				c.Compressed, c.Failed, humanize.IBytes(uint64(max(c.BytesSaved, 0))))
		}
	}

	if len(r.Recommendations) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recommendations:")
	for i, rec := range r.Recommendations {
		fmt.Fprintf(w, "  %d. [%s] %s: %s\n", i+1, strings.ToUpper(string(rec.Priority)), rec.Action, rec.Description)
	}
}
