// Package report assembles the terminal Report of a run and derives its
// prioritized recommendations.
package report

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Ning0612/storeopt/internal/domain"
)

// Recommendation actions, in emission order
const (
	ActionRemoveDuplicates = "Remove duplicate files"
	ActionCompress         = "Compress suitable files"
	ActionOffload          = "Offload to secondary storage"
	ActionOrganize         = "Organize logical structure"
)

// CompressionSavingsRange is the advisory, unmeasured compression estimate
const CompressionSavingsRange = "30-70% depending on file type"

// Input carries the outputs of every analysis phase
type Input struct {
	RunID     string
	Root      string
	StartedAt time.Time

	// FilesScanned is the number of records produced by the walker
	FilesScanned int

	Groups       []domain.DuplicateGroup
	HashFailures int

	Compression *domain.CandidateList
	Offload     *domain.CandidateList

	Plan        *domain.OrganizationPlan
	Diagnostics []domain.Diagnostic
}

// Synthesizer builds reports. The zero value is ready to use.
type Synthesizer struct {
	// Now overrides the clock; nil uses time.Now
	Now func() time.Time
}

// Build aggregates in into a Report. It never fails: every input may be empty.
func (s *Synthesizer) Build(in Input) *domain.Report {
	now := time.Now
	if s != nil && s.Now != nil {
		now = s.Now
	}
	generated := now()

	plan := domain.OrganizationPlan{}
	if in.Plan != nil {
		plan = *in.Plan
	}

	var totalSize int64
	if plan.CurrentStructure != nil {
		totalSize = plan.CurrentStructure.Size
	}

	var wasted int64
	for _, g := range in.Groups {
		wasted += g.WastedSpace()
	}

	diags := in.Diagnostics
	if diags == nil {
		diags = []domain.Diagnostic{}
	}

	r := &domain.Report{
		RunID:       in.RunID,
		Root:        in.Root,
		GeneratedAt: generated,
		Analysis: domain.StorageAnalysis{
			TotalSize:             totalSize,
			FilesScanned:          in.FilesScanned,
			DuplicateGroups:       len(in.Groups),
			DuplicateSpaceWasted:  wasted,
			CompressionCandidates: in.Compression.Len(),
			OffloadCandidates:     in.Offload.Len(),
			HashFailures:          in.HashFailures,
		},
		Duplicates:            DuplicateIndex(in.Groups),
		CompressionCandidates: in.Compression.Paths(),
		OffloadCandidates:     in.Offload.Paths(),
		OrganizationPlan:      plan,
		Diagnostics:           diags,
		Groups:                in.Groups,
		CompressionCandidate:  in.Compression,
		OffloadCandidate:      in.Offload,
	}
	if !in.StartedAt.IsZero() {
		r.Duration = generated.Sub(in.StartedAt)
	}
	r.Recommendations = Recommendations(r)
	return r
}

// DuplicateIndex keys each group's paths by its short digest. When two groups
// share a prefix, the later one is keyed by its full digest instead.
func DuplicateIndex(groups []domain.DuplicateGroup) map[string][]string {
	index := make(map[string][]string, len(groups))
	for _, g := range groups {
		key := g.Digest.Short()
		if _, taken := index[key]; taken {
			key = string(g.Digest)
		}
		index[key] = g.Paths()
	}
	return index
}

// Recommendations derives the recommendation list from the computed metrics.
// Emission order is fixed; the organize entry is always present.
func Recommendations(r *domain.Report) []domain.Recommendation {
	a := r.Analysis
	recs := make([]domain.Recommendation, 0, 4)

	if a.DuplicateGroups > 0 {
		affected := 0
		for _, paths := range r.Duplicates {
			affected += len(paths)
		}
		recs = append(recs, domain.Recommendation{
			Priority: domain.PriorityHigh,
			Action:   ActionRemoveDuplicates,
			Description: fmt.Sprintf("Found %d sets of duplicate files wasting %s",
				a.DuplicateGroups, humanize.IBytes(uint64(a.DuplicateSpaceWasted))),
			FilesAffected:         affected,
			EstimatedSavingsBytes: a.DuplicateSpaceWasted,
		})
	}

	if a.CompressionCandidates > 0 {
		recs = append(recs, domain.Recommendation{
			Priority:         domain.PriorityMedium,
			Action:           ActionCompress,
			Description:      fmt.Sprintf("%d files can be compressed for space savings", a.CompressionCandidates),
			FilesAffected:    a.CompressionCandidates,
			EstimatedSavings: CompressionSavingsRange,
		})
	}

	if a.OffloadCandidates > 0 {
		recs = append(recs, domain.Recommendation{
			Priority:      domain.PriorityLow,
			Action:        ActionOffload,
			Description:   fmt.Sprintf("%d files can be moved to secondary storage", a.OffloadCandidates),
			FilesAffected: a.OffloadCandidates,
			Benefit:       "Free up local storage while maintaining accessibility",
		})
	}

	recs = append(recs, domain.Recommendation{
		Priority:    domain.PriorityHigh,
		Action:      ActionOrganize,
		Description: "Restructure files into logical hierarchical organization",
		Benefit:     "Improved maintainability and easier navigation",
	})

	return recs
}
