package walker

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/Ning0612/storeopt/internal/adapter"
	"github.com/Ning0612/storeopt/internal/domain"
	"github.com/Ning0612/storeopt/internal/logger"
)

// PhaseWalk tags diagnostics produced while enumerating the tree
const PhaseWalk = "walk"

// errStop aborts the underlying walk when the consumer stops iterating
var errStop = errors.New("walk stopped by consumer")

// Options configures a Walker
type Options struct {
	// Exclude holds gitignore-style patterns matched against root-relative paths
	Exclude []string

	// SkipPaths are absolute paths skipped verbatim (the report and its lock)
	SkipPaths []string

	// OnDiagnostic receives every skipped entry; may be nil
	OnDiagnostic func(domain.Diagnostic)
}

// Excluder matches root-relative paths against gitignore-style patterns
// and absolute paths against an exact skip set
type Excluder struct {
	ignore *gitignore.GitIgnore
	paths  map[string]struct{}
}

// NewExcluder compiles patterns; an empty pattern list excludes nothing.
// paths are matched exactly, without pattern interpretation.
func NewExcluder(patterns []string, paths ...string) *Excluder {
	e := &Excluder{}
	if len(patterns) > 0 {
		e.ignore = gitignore.CompileIgnoreLines(patterns...)
	}
	if len(paths) > 0 {
		e.paths = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			e.paths[filepath.Clean(p)] = struct{}{}
		}
	}
	return e
}

// Excluded reports whether path (below root) matches an exclusion pattern
func (e *Excluder) Excluded(root, path string, isDir bool) bool {
	if e == nil {
		return false
	}
	if _, ok := e.paths[filepath.Clean(path)]; ok {
		return true
	}
	if e.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	if isDir && e.ignore.MatchesPath(rel+"/") {
		return true
	}
	return e.ignore.MatchesPath(rel)
}

// Walker enumerates regular files below an adapter's root
type Walker struct {
	adapter adapter.Adapter
	exclude *Excluder
	onDiag  func(domain.Diagnostic)
}

// New creates a walker over the adapter's root
func New(a adapter.Adapter, opts Options) *Walker {
	return &Walker{
		adapter: a,
		exclude: NewExcluder(opts.Exclude, opts.SkipPaths...),
		onDiag:  opts.OnDiagnostic,
	}
}

// Files returns a lazy sequence of the files below the root.
// Every call re-walks the tree from scratch. Unreadable entries are skipped
// and reported as diagnostics; the only error ever yielded is the terminal
// context error, after which the sequence ends.
func (w *Walker) Files(ctx context.Context) iter.Seq2[domain.FileRecord, error] {
	return func(yield func(domain.FileRecord, error) bool) {
		root := w.adapter.Root()

		err := w.adapter.Walk(ctx, root, func(path string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				w.diagnose(path, walkErr)
				if path == root {
					return walkErr
				}
				// afero reports unreadable directories after visiting them;
				// returning nil skips the subtree and keeps walking.
				return nil
			}

			if path == root {
				return nil
			}

			if w.exclude.Excluded(root, path, info.IsDir()) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if info.IsDir() {
				return nil
			}
			if !info.Mode().IsRegular() {
				logger.Get().Debug("skipping non-regular file", "path", path, "mode", info.Mode().String())
				return nil
			}

			rec := domain.NewFileRecord(root, path, info.Size(), info.ModTime())
			if !yield(rec, nil) {
				return errStop
			}
			return nil
		})

		if err == nil || errors.Is(err, errStop) {
			return
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			yield(domain.FileRecord{}, ctxErr)
			return
		}
		// The root itself could not be read; already diagnosed.
	}
}

// Collect drains the sequence into a slice in discovery order
func (w *Walker) Collect(ctx context.Context) ([]domain.FileRecord, error) {
	var records []domain.FileRecord
	for rec, err := range w.Files(ctx) {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (w *Walker) diagnose(path string, err error) {
	logger.Get().Warn("skipping unreadable entry", "path", path, "error", err)
	if w.onDiag != nil {
		w.onDiag(domain.Diagnostic{Path: path, Phase: PhaseWalk, Message: err.Error()})
	}
}
