package duplicate

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Ning0612/storeopt/internal/domain"
	"github.com/Ning0612/storeopt/internal/logger"
)

// PhaseHash tags diagnostics produced while hashing
const PhaseHash = "hash"

// Hasher computes the digest of one file
type Hasher interface {
	HashFile(ctx context.Context, path string) (domain.ContentDigest, error)
}

// Options configures the detector
type Options struct {
	// Workers bounds the number of files hashed (and open) simultaneously
	Workers int

	// OnDiagnostic receives every file that could not be hashed; may be nil
	OnDiagnostic func(domain.Diagnostic)

	// OnGroup is called once per duplicate group, in group order; may be nil
	OnGroup func(domain.DuplicateGroup)

	// OnHashed is called after each file is hashed or fails; may be nil.
	// It is invoked from worker goroutines.
	OnHashed func(rec domain.FileRecord, err error)
}

// Result holds the outcome of one detection pass
type Result struct {
	// Groups are ordered by the discovery position of their first member
	Groups []domain.DuplicateGroup

	// Hashed is the number of files successfully digested
	Hashed int

	// Failed is the number of files excluded because they could not be read
	Failed int
}

// WastedSpace sums the wasted space of all groups
func (r *Result) WastedSpace() int64 {
	var total int64
	for _, g := range r.Groups {
		total += g.WastedSpace()
	}
	return total
}

// FilesAffected is the total number of files that belong to a group
func (r *Result) FilesAffected() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Count()
	}
	return n
}

// Detector groups files by content digest
type Detector struct {
	hasher Hasher
	opts   Options
}

// NewDetector creates a detector; Workers defaults to GOMAXPROCS
func NewDetector(hasher Hasher, opts Options) *Detector {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Detector{hasher: hasher, opts: opts}
}

// Detect hashes every record and returns the groups with two or more members.
// Member order within a group is the order of records, regardless of which
// worker finished first. Unreadable files are skipped; only cancellation of
// ctx aborts the pass.
func (d *Detector) Detect(ctx context.Context, records []domain.FileRecord) (*Result, error) {
	digests := make([]domain.ContentDigest, len(records))
	failures := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	for i := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			digest, err := d.hasher.HashFile(gctx, records[i].Path)
			if d.opts.OnHashed != nil {
				d.opts.OnHashed(records[i], err)
			}
			if err != nil {
				if domain.IsUnreadable(err) {
					failures[i] = err
					return nil
				}
				return err
			}
			digests[i] = digest
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{}
	buckets := make(map[domain.ContentDigest][]domain.FileRecord)
	var order []domain.ContentDigest

	for i, rec := range records {
		if failures[i] != nil {
			result.Failed++
			logger.Get().Warn("excluding unreadable file from duplicate detection",
				"path", rec.Path,
				"error", failures[i],
			)
			if d.opts.OnDiagnostic != nil {
				d.opts.OnDiagnostic(domain.Diagnostic{Path: rec.Path, Phase: PhaseHash, Message: failures[i].Error()})
			}
			continue
		}

		result.Hashed++
		digest := digests[i]
		if _, ok := buckets[digest]; !ok {
			order = append(order, digest)
		}
		buckets[digest] = append(buckets[digest], rec)
	}

	for _, digest := range order {
		files := buckets[digest]
		if len(files) < 2 {
			continue
		}
		group := domain.DuplicateGroup{Digest: digest, Files: files}
		result.Groups = append(result.Groups, group)

		logger.Get().Debug("duplicate group found",
			"digest", digest.Short(),
			"files", len(files),
			"wasted_bytes", group.WastedSpace(),
		)
		if d.opts.OnGroup != nil {
			d.opts.OnGroup(group)
		}
	}

	return result, nil
}
