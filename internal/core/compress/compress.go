// Package compress writes gzip copies of compression candidates next to the
// originals. Originals are never modified or removed.
package compress

import (
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/Ning0612/storeopt/internal/domain"
	"github.com/Ning0612/storeopt/internal/logger"
)

// DefaultSuffix is appended to the source path to form the target path
const DefaultSuffix = ".gz"

// FileStore is the subset of the filesystem adapter the compressor needs
type FileStore interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	WriteFile(ctx context.Context, path string, r io.Reader) error
}

// Options configures the compressor
type Options struct {
	// Level is the gzip level; 0 selects gzip.DefaultCompression
	Level int

	// Suffix is appended to each source path; "" selects DefaultSuffix
	Suffix string

	// OnResult is called after each file in live mode; may be nil
	OnResult func(domain.CompressionResult)
}

// Compressor produces compressed copies of candidate files
type Compressor struct {
	store FileStore
	opts  Options
}

// New creates a compressor. An invalid level is reported here rather than per file.
func New(store FileStore, opts Options) (*Compressor, error) {
	if opts.Level == 0 {
		opts.Level = gzip.DefaultCompression
	}
	if opts.Level < gzip.HuffmanOnly || opts.Level > gzip.BestCompression {
		return nil, fmt.Errorf("invalid gzip level %d", opts.Level)
	}
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	return &Compressor{store: store, opts: opts}, nil
}

// Target returns the path of the compressed copy of source
func (c *Compressor) Target(source string) string {
	return source + c.opts.Suffix
}

// Plan lists the intended actions without touching the filesystem
func (c *Compressor) Plan(candidates *domain.CandidateList) []domain.CompressionAction {
	files := candidates.Files()
	actions := make([]domain.CompressionAction, 0, len(files))
	for _, f := range files {
		actions = append(actions, domain.CompressionAction{
			Source: f.Path,
			Target: c.Target(f.Path),
			Size:   f.Size,
		})
	}
	return actions
}

// Run executes the compress step. In dry-run mode only the plan is returned.
// In live mode a failing file is recorded and logged and the remaining files
// are still processed; only context cancellation stops the loop early.
func (c *Compressor) Run(ctx context.Context, candidates *domain.CandidateList, dryRun bool) (*domain.CompressionOutcome, error) {
	log := logger.Get()
	actions := c.Plan(candidates)

	out := &domain.CompressionOutcome{DryRun: dryRun}
	if dryRun {
		out.Actions = actions
		for _, a := range actions {
			log.Info("dry run: would compress", "source", a.Source, "target", a.Target)
		}
		return out, nil
	}

	out.Results = make([]domain.CompressionResult, 0, len(actions))
	for _, a := range actions {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		res := c.compressOne(ctx, a)
		if res.Failed() {
			out.Failed++
			log.Warn("compression failed", "source", a.Source, "error", res.Error)
		} else {
			out.Compressed++
			out.BytesSaved += res.OriginalSize - res.CompressedSize
			log.Info("compressed file",
				"source", res.Source,
				"original_size", res.OriginalSize,
				"compressed_size", res.CompressedSize,
				"reduction", fmt.Sprintf("%.1f%%", res.ReductionPercent))
		}
		out.Results = append(out.Results, res)
		if c.opts.OnResult != nil {
			c.opts.OnResult(res)
		}
	}
	return out, nil
}

func (c *Compressor) compressOne(ctx context.Context, a domain.CompressionAction) domain.CompressionResult {
	res := domain.CompressionResult{Source: a.Source, Target: a.Target}

	src, err := c.store.Open(ctx, a.Source)
	if err != nil {
		res.Error = fmt.Sprintf("open source: %v", err)
		return res
	}
	defer src.Close()

	in := &countingReader{r: src}
	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(encode(pw, in, c.opts.Level))
	}()

	compressed := &countingReader{r: pr}
	err = c.store.WriteFile(ctx, a.Target, compressed)
	// Unblocks the encoder if the write stopped consuming early
	pr.CloseWithError(io.ErrClosedPipe)
	<-done
	if err != nil {
		res.Error = fmt.Sprintf("write %s: %v", a.Target, err)
		return res
	}

	res.OriginalSize = in.n
	res.CompressedSize = compressed.n
	res.ReductionPercent = Reduction(res.OriginalSize, res.CompressedSize)
	return res
}

func encode(w io.Writer, r io.Reader, level int) error {
	gw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return err
	}
	if _, err := io.Copy(gw, r); err != nil {
		gw.Close()
		return err
	}
	return gw.Close()
}

// Reduction is the size reduction in percent; negative when the copy grew
func Reduction(original, compressed int64) float64 {
	if original <= 0 {
		return 0
	}
	return (1 - float64(compressed)/float64(original)) * 100
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
