package structure

import (
	"context"
	"path/filepath"

	"github.com/Ning0612/storeopt/internal/adapter"
	"github.com/Ning0612/storeopt/internal/core/walker"
	"github.com/Ning0612/storeopt/internal/domain"
	"github.com/Ning0612/storeopt/internal/logger"
)

// PhaseStructure tags diagnostics produced while summarizing the tree
const PhaseStructure = "structure"

// DefaultMaxDepth is the number of nested levels expanded below the root's children
const DefaultMaxDepth = 2

// Options configures the analyzer
type Options struct {
	// MaxDepth bounds how deep children are materialized; sizes are always complete
	MaxDepth int

	// Exclude holds gitignore-style patterns skipped by the summary
	Exclude []string

	// SkipPaths are absolute paths left out of the summary
	SkipPaths []string

	// Buckets is the proposed layout; nil selects DefaultBuckets
	Buckets map[string]domain.ProposedBucket

	// MigrationSteps is the advisory step list; nil selects DefaultMigrationSteps
	MigrationSteps []string

	// OnDiagnostic receives unreadable directories; may be nil
	OnDiagnostic func(domain.Diagnostic)
}

// Analyzer summarizes the current layout and proposes a target one
type Analyzer struct {
	adapter adapter.Adapter
	exclude *walker.Excluder
	opts    Options
}

// NewAnalyzer creates a structure analyzer
func NewAnalyzer(a adapter.Adapter, opts Options) *Analyzer {
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	if opts.Buckets == nil {
		opts.Buckets = DefaultBuckets()
	}
	if opts.MigrationSteps == nil {
		opts.MigrationSteps = DefaultMigrationSteps()
	}
	return &Analyzer{
		adapter: a,
		exclude: walker.NewExcluder(opts.Exclude, opts.SkipPaths...),
		opts:    opts,
	}
}

// Plan builds the full organization plan
func (a *Analyzer) Plan(ctx context.Context) (*domain.OrganizationPlan, error) {
	current, err := a.Current(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.OrganizationPlan{
		CurrentStructure:  current,
		ProposedStructure: a.Proposed(),
		MigrationSteps:    a.MigrationSteps(),
	}, nil
}

// frame is one directory in the traversal arena.
// Frames are appended after their parent, so a reverse sweep folds sizes bottom-up.
type frame struct {
	path   string
	parent int
	depth  int
	size   int64
	node   *domain.DirectoryNode
}

// Current summarizes the tree below the root. A directory at depth d (root = 0)
// has its children listed when d <= MaxDepth; deeper directories carry the
// max-depth marker instead. Every directory size is the sum of all files
// transitively below it, regardless of the depth bound.
func (a *Analyzer) Current(ctx context.Context) (*domain.DirectoryNode, error) {
	root := a.adapter.Root()
	rootNode := &domain.DirectoryNode{
		Name:     filepath.Base(root),
		Kind:     domain.KindDirectory,
		Children: make(map[string]*domain.DirectoryNode),
	}

	frames := []frame{{path: root, parent: -1, node: rootNode}}
	stack := []int{0}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dir := frames[idx]

		entries, err := a.adapter.ReadDir(ctx, dir.path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.diagnose(dir.path, err)
			continue
		}

		expanded := dir.node != nil && dir.node.Children != nil
		for _, entry := range entries {
			path := filepath.Join(dir.path, entry.Name())
			isDir := entry.IsDir()
			if a.exclude.Excluded(root, path, isDir) {
				continue
			}

			switch {
			case isDir:
				child := frame{path: path, parent: idx, depth: dir.depth + 1}
				if expanded {
					child.node = &domain.DirectoryNode{Name: entry.Name(), Kind: domain.KindDirectory}
					if child.depth <= a.opts.MaxDepth {
						child.node.Children = make(map[string]*domain.DirectoryNode)
					} else {
						child.node.Truncated = domain.MaxDepthMarker
					}
					dir.node.Children[entry.Name()] = child.node
				}
				frames = append(frames, child)
				stack = append(stack, len(frames)-1)

			case entry.Mode().IsRegular():
				frames[idx].size += entry.Size()
				if expanded {
					dir.node.Children[entry.Name()] = &domain.DirectoryNode{
						Name: entry.Name(),
						Kind: domain.KindFile,
						Size: entry.Size(),
					}
				}

			default:
				logger.Get().Debug("structure skips non-regular entry", "path", path)
			}
		}
	}

	for i := len(frames) - 1; i > 0; i-- {
		frames[frames[i].parent].size += frames[i].size
	}
	for _, f := range frames {
		if f.node != nil {
			f.node.Size = f.size
		}
	}

	return rootNode, nil
}

// Proposed returns a copy of the configured target layout
func (a *Analyzer) Proposed() map[string]domain.ProposedBucket {
	out := make(map[string]domain.ProposedBucket, len(a.opts.Buckets))
	for name, b := range a.opts.Buckets {
		out[name] = domain.ProposedBucket{
			Description: b.Description,
			Contents:    append([]string(nil), b.Contents...),
		}
	}
	return out
}

// MigrationSteps returns a copy of the advisory step sequence
func (a *Analyzer) MigrationSteps() []string {
	return append([]string(nil), a.opts.MigrationSteps...)
}

func (a *Analyzer) diagnose(path string, err error) {
	logger.Get().Warn("skipping unreadable directory", "path", path, "error", err)
	if a.opts.OnDiagnostic != nil {
		a.opts.OnDiagnostic(domain.Diagnostic{Path: path, Phase: PhaseStructure, Message: err.Error()})
	}
}
