package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/storeopt/internal/domain"
)

func rec(path string, size int64) domain.FileRecord {
	return domain.NewFileRecord("/proj", "/proj/"+path, size, time.Time{})
}

func group(digest string, size int64, paths ...string) domain.DuplicateGroup {
	g := domain.DuplicateGroup{Digest: domain.ContentDigest(digest)}
	for _, p := range paths {
		g.Files = append(g.Files, rec(p, size))
	}
	return g
}

func list(files ...domain.FileRecord) *domain.CandidateList {
	l := domain.NewCandidateList()
	for _, f := range files {
		l.Add(f)
	}
	return l
}

func actions(recs []domain.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Action
	}
	return out
}

func TestBuild_EmptyTree(t *testing.T) {
	s := &Synthesizer{}
	r := s.Build(Input{
		Root: "/proj",
		Plan: &domain.OrganizationPlan{
			CurrentStructure: &domain.DirectoryNode{Name: "proj", Kind: domain.KindDirectory},
		},
	})

	assert.Zero(t, r.Analysis.DuplicateGroups)
	assert.Zero(t, r.Analysis.DuplicateSpaceWasted)
	assert.Zero(t, r.Analysis.CompressionCandidates)
	assert.Zero(t, r.Analysis.OffloadCandidates)
	assert.Empty(t, r.Duplicates)
	assert.NotNil(t, r.CompressionCandidates)
	assert.NotNil(t, r.OffloadCandidates)
	assert.NotNil(t, r.Diagnostics)

	require.Len(t, r.Recommendations, 1)
	assert.Equal(t, ActionOrganize, r.Recommendations[0].Action)
	assert.Equal(t, domain.PriorityHigh, r.Recommendations[0].Priority)
}

func TestBuild_Metrics(t *testing.T) {
	groups := []domain.DuplicateGroup{
		group("aaaaaaaa11111111", 5, "a.txt", "b.txt"),
		group("bbbbbbbb22222222", 100, "x", "y", "z"),
	}
	r := (&Synthesizer{}).Build(Input{
		FilesScanned: 9,
		Groups:       groups,
		HashFailures: 1,
		Compression:  list(rec("big.json", 2048)),
		Offload:      list(rec("old.txt", 1), rec("cache/x", 1)),
		Plan: &domain.OrganizationPlan{
			CurrentStructure: &domain.DirectoryNode{Kind: domain.KindDirectory, Size: 4321},
		},
	})

	assert.Equal(t, int64(4321), r.Analysis.TotalSize)
	assert.Equal(t, 9, r.Analysis.FilesScanned)
	assert.Equal(t, 2, r.Analysis.DuplicateGroups)
	assert.Equal(t, int64(5+200), r.Analysis.DuplicateSpaceWasted)
	assert.Equal(t, 1, r.Analysis.CompressionCandidates)
	assert.Equal(t, 2, r.Analysis.OffloadCandidates)
	assert.Equal(t, 1, r.Analysis.HashFailures)

	assert.Equal(t, []string{"/proj/a.txt", "/proj/b.txt"}, r.Duplicates["aaaaaaaa"])
	assert.Equal(t, []string{"/proj/x", "/proj/y", "/proj/z"}, r.Duplicates["bbbbbbbb"])
	assert.Equal(t, []string{"/proj/big.json"}, r.CompressionCandidates)
	assert.Equal(t, []string{"/proj/old.txt", "/proj/cache/x"}, r.OffloadCandidates)
}

func TestRecommendations_Order(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		wants []string
	}{
		{
			name:  "nothing found",
			in:    Input{},
			wants: []string{ActionOrganize},
		},
		{
			name:  "duplicates only",
			in:    Input{Groups: []domain.DuplicateGroup{group("cafebabe00", 3, "a", "b")}},
			wants: []string{ActionRemoveDuplicates, ActionOrganize},
		},
		{
			name:  "offload only",
			in:    Input{Offload: list(rec("backup.tar", 1))},
			wants: []string{ActionOffload, ActionOrganize},
		},
		{
			name: "everything",
			in: Input{
				Groups:      []domain.DuplicateGroup{group("cafebabe00", 3, "a", "b")},
				Compression: list(rec("a.log", 2000)),
				Offload:     list(rec("temp.txt", 1)),
			},
			wants: []string{ActionRemoveDuplicates, ActionCompress, ActionOffload, ActionOrganize},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := (&Synthesizer{}).Build(tt.in)
			assert.Equal(t, tt.wants, actions(r.Recommendations))
			for _, rec := range r.Recommendations {
				assert.True(t, rec.Priority.IsValid())
			}
		})
	}
}

func TestRecommendations_Payload(t *testing.T) {
	r := (&Synthesizer{}).Build(Input{
		Groups: []domain.DuplicateGroup{
			group("0123456789", 1024*1024, "a", "b", "c"),
		},
		Compression: list(rec("a.css", 5000), rec("b.css", 5000)),
	})

	require.Len(t, r.Recommendations, 3)

	dup := r.Recommendations[0]
	assert.Equal(t, domain.PriorityHigh, dup.Priority)
	assert.Equal(t, 3, dup.FilesAffected)
	assert.Equal(t, int64(2*1024*1024), dup.EstimatedSavingsBytes)
	assert.Equal(t, "Found 1 sets of duplicate files wasting 2.0 MiB", dup.Description)

	comp := r.Recommendations[1]
	assert.Equal(t, domain.PriorityMedium, comp.Priority)
	assert.Equal(t, 2, comp.FilesAffected)
	assert.Equal(t, CompressionSavingsRange, comp.EstimatedSavings)
}

func TestDuplicateIndex_PrefixCollision(t *testing.T) {
	groups := []domain.DuplicateGroup{
		group("deadbeef0001", 1, "a", "b"),
		group("deadbeef0002", 1, "c", "d"),
	}

	index := DuplicateIndex(groups)

	require.Len(t, index, 2)
	assert.Equal(t, []string{"/proj/a", "/proj/b"}, index["deadbeef"])
	assert.Equal(t, []string{"/proj/c", "/proj/d"}, index["deadbeef0002"])
}

func TestBuild_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Synthesizer{Now: func() time.Time { return start.Add(3 * time.Second) }}

	r := s.Build(Input{StartedAt: start, RunID: "run-1"})

	assert.Equal(t, 3*time.Second, r.Duration)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, start.Add(3*time.Second), r.GeneratedAt)
}
