package structure

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/storeopt/internal/adapter/local"
	"github.com/Ning0612/storeopt/internal/domain"
	"github.com/Ning0612/storeopt/internal/testutil"
)

func newAnalyzer(t *testing.T, files map[string]string, opts Options) *Analyzer {
	t.Helper()
	fs := testutil.MemTree(t, "/proj", files)
	a, err := local.NewWithFs(fs, "/proj")
	require.NoError(t, err)
	return NewAnalyzer(a, opts)
}

func TestCurrent_TreeShape(t *testing.T) {
	an := newAnalyzer(t, map[string]string{
		"top.txt":          "12345",
		"a/one.bin":        "1",
		"a/b/two.bin":      "22",
		"a/b/c/three.bin":  "333",
		"a/b/c/d/four.bin": "4444",
		"empty/":           "",
	}, Options{MaxDepth: 2})

	got, err := an.Current(context.Background())
	require.NoError(t, err)

	want := &domain.DirectoryNode{
		Name: "proj", Kind: domain.KindDirectory, Size: 15,
		Children: map[string]*domain.DirectoryNode{
			"top.txt": {Name: "top.txt", Kind: domain.KindFile, Size: 5},
			"empty": {
				Name: "empty", Kind: domain.KindDirectory, Size: 0,
				Children: map[string]*domain.DirectoryNode{},
			},
			"a": {
				Name: "a", Kind: domain.KindDirectory, Size: 10,
				Children: map[string]*domain.DirectoryNode{
					"one.bin": {Name: "one.bin", Kind: domain.KindFile, Size: 1},
					"b": {
						Name: "b", Kind: domain.KindDirectory, Size: 9,
						Children: map[string]*domain.DirectoryNode{
							"two.bin": {Name: "two.bin", Kind: domain.KindFile, Size: 2},
							"c": {
								Name: "c", Kind: domain.KindDirectory, Size: 7,
								Truncated: domain.MaxDepthMarker,
							},
						},
					},
				},
			},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Current() mismatch (-want +got):\n%s", diff)
	}
}

func TestCurrent_ZeroDepth(t *testing.T) {
	an := newAnalyzer(t, map[string]string{
		"f":     "x",
		"d/g":   "yy",
		"d/e/h": "zzz",
	}, Options{MaxDepth: 0})

	got, err := an.Current(context.Background())
	require.NoError(t, err)

	require.Contains(t, got.Children, "d")
	d := got.Children["d"]
	assert.Nil(t, d.Children)
	assert.Equal(t, domain.MaxDepthMarker, d.Truncated)
	assert.Equal(t, int64(5), d.Size)
	assert.Equal(t, int64(6), got.Size)
}

// sumBelow recomputes directory sizes straight from the file list
func sumBelow(files map[string]string, dir string) int64 {
	var total int64
	for name, content := range files {
		if strings.HasSuffix(name, "/") {
			continue
		}
		if dir == "" || strings.HasPrefix(name, dir+"/") {
			total += int64(len(content))
		}
	}
	return total
}

func TestCurrent_DirectorySizeIsTransitiveSum(t *testing.T) {
	files := map[string]string{
		"x/1":         strings.Repeat("a", 100),
		"x/y/2":       strings.Repeat("b", 250),
		"x/y/z/3":     strings.Repeat("c", 7),
		"x/y/z/w/v/4": strings.Repeat("d", 1000),
		"q/5":         strings.Repeat("e", 42),
		"6":           strings.Repeat("f", 3),
	}
	an := newAnalyzer(t, files, Options{MaxDepth: 10})

	got, err := an.Current(context.Background())
	require.NoError(t, err)

	var check func(n *domain.DirectoryNode, rel string)
	check = func(n *domain.DirectoryNode, rel string) {
		if !n.IsDir() {
			return
		}
		assert.Equal(t, sumBelow(files, rel), n.Size, "size of %q", rel)
		for name, child := range n.Children {
			childRel := name
			if rel != "" {
				childRel = rel + "/" + name
			}
			check(child, childRel)
		}
	}
	check(got, "")
}

func TestCurrent_DeepTree(t *testing.T) {
	const depth = 500
	parts := make([]string, depth)
	for i := range parts {
		parts[i] = "d"
	}
	deep := strings.Join(parts, "/") + "/leaf.txt"

	an := newAnalyzer(t, map[string]string{deep: "deep"}, Options{MaxDepth: DefaultMaxDepth})

	got, err := an.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Size)
	assert.Equal(t, int64(4), got.Children["d"].Size)
}

func TestCurrent_Exclude(t *testing.T) {
	an := newAnalyzer(t, map[string]string{
		"keep.txt":                         "abc",
		"storage_optimization_report.json": strings.Repeat("r", 500),
	}, Options{MaxDepth: 2, Exclude: []string{"/storage_optimization_report.json"}})

	got, err := an.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Size)
	assert.NotContains(t, got.Children, "storage_optimization_report.json")
}

func TestCurrent_UnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "ok.txt", []byte("12345"))
	testutil.CreateTestFile(t, dir, "locked/x.txt", []byte("hidden"))
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	a, err := local.New(dir)
	require.NoError(t, err)

	var diags []domain.Diagnostic
	an := NewAnalyzer(a, Options{
		MaxDepth:     2,
		OnDiagnostic: func(d domain.Diagnostic) { diags = append(diags, d) },
	})

	got, err := an.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Size)
	require.Len(t, diags, 1)
	assert.Equal(t, locked, diags[0].Path)
}

func TestPlan_StaticLayout(t *testing.T) {
	an := newAnalyzer(t, map[string]string{"a": "1"}, Options{MaxDepth: 2})

	plan, err := an.Plan(context.Background())
	require.NoError(t, err)

	for _, name := range domain.CanonicalBuckets() {
		assert.Contains(t, plan.ProposedStructure, name)
	}
	assert.Equal(t, DefaultMigrationSteps(), plan.MigrationSteps)
	require.Len(t, plan.MigrationSteps, 6)
	assert.Contains(t, plan.MigrationSteps[0], "duplicate")
	assert.Contains(t, plan.MigrationSteps[5], "integrity")

	// Callers cannot mutate the analyzer's configuration through the plan
	plan.MigrationSteps[0] = "changed"
	assert.NotEqual(t, "changed", an.MigrationSteps()[0])
}
