package walker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/storeopt/internal/adapter/local"
	"github.com/Ning0612/storeopt/internal/domain"
	"github.com/Ning0612/storeopt/internal/testutil"
)

func relPaths(records []domain.FileRecord) []string {
	paths := make([]string, len(records))
	for i, r := range records {
		paths[i] = r.RelPath
	}
	sort.Strings(paths)
	return paths
}

func TestWalker_Files(t *testing.T) {
	fs := testutil.MemTree(t, "/scan", map[string]string{
		"a.txt":             "hello",
		"docs/README.MD":    "# readme",
		"docs/deep/x/y.log": "log line",
		"noext":             "",
	})
	a, err := local.NewWithFs(fs, "/scan")
	require.NoError(t, err)

	records, err := New(a, Options{}).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "docs/README.MD", "docs/deep/x/y.log", "noext"}, relPaths(records))

	for _, r := range records {
		switch r.RelPath {
		case "a.txt":
			assert.Equal(t, int64(5), r.Size)
			assert.Equal(t, ".txt", r.Ext)
			assert.Equal(t, filepath.Join("/scan", "a.txt"), r.Path)
		case "docs/README.MD":
			assert.Equal(t, ".md", r.Ext, "extension must be lowercased")
		case "noext":
			assert.Equal(t, "", r.Ext)
			assert.Equal(t, int64(0), r.Size)
		}
	}
}

func TestWalker_Restartable(t *testing.T) {
	fs := testutil.MemTree(t, "/scan", map[string]string{
		"one.txt": "1",
		"two.txt": "2",
	})
	a, err := local.NewWithFs(fs, "/scan")
	require.NoError(t, err)
	w := New(a, Options{})

	first, err := w.Collect(context.Background())
	require.NoError(t, err)
	second, err := w.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, relPaths(first), relPaths(second))
}

func TestWalker_Exclude(t *testing.T) {
	fs := testutil.MemTree(t, "/scan", map[string]string{
		"keep.txt":                                "k",
		"node_modules/pkg/index.js":               "js",
		"storage_optimization_report.json":        "{}",
		"nested/storage_optimization_report.json": "{}",
		"build/out.bin":                           "bin",
	})
	a, err := local.NewWithFs(fs, "/scan")
	require.NoError(t, err)

	w := New(a, Options{Exclude: []string{
		"node_modules",
		"/storage_optimization_report.json",
		"build/",
	}})
	records, err := w.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.txt", "nested/storage_optimization_report.json"}, relPaths(records))
}

func TestWalker_SkipPaths(t *testing.T) {
	fs := testutil.MemTree(t, "/scan", map[string]string{
		"keep.txt":                 "k",
		"out/report (1).json":      "{}",
		"out/report (1).json.lock": "{}",
	})
	a, err := local.NewWithFs(fs, "/scan")
	require.NoError(t, err)

	w := New(a, Options{SkipPaths: []string{
		"/scan/out/report (1).json",
		"/scan/out/./report (1).json.lock",
	}})
	records, err := w.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.txt"}, relPaths(records))
}

func TestWalker_EarlyStop(t *testing.T) {
	fs := testutil.MemTree(t, "/scan", map[string]string{
		"a": "1", "b": "2", "c": "3",
	})
	a, err := local.NewWithFs(fs, "/scan")
	require.NoError(t, err)

	count := 0
	for _, err := range New(a, Options{}).Files(context.Background()) {
		require.NoError(t, err)
		count++
		if count == 1 {
			break
		}
	}
	assert.Equal(t, 1, count)
}

func TestWalker_Cancelled(t *testing.T) {
	fs := testutil.MemTree(t, "/scan", map[string]string{"a": "1"})
	a, err := local.NewWithFs(fs, "/scan")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New(a, Options{}).Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalker_UnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "ok.txt", []byte("ok"))
	testutil.CreateTestFile(t, dir, "locked/hidden.txt", []byte("hidden"))
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	a, err := local.New(dir)
	require.NoError(t, err)

	var diags []domain.Diagnostic
	w := New(a, Options{OnDiagnostic: func(d domain.Diagnostic) { diags = append(diags, d) }})

	records, err := w.Collect(context.Background())
	require.NoError(t, err, "an unreadable directory must not abort the walk")
	assert.Equal(t, []string{"ok.txt"}, relPaths(records))

	require.Len(t, diags, 1)
	assert.Equal(t, locked, diags[0].Path)
	assert.Equal(t, PhaseWalk, diags[0].Phase)
}

func TestWalker_SkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "real.txt", []byte("real"))
	if err := os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "broken")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	a, err := local.New(dir)
	require.NoError(t, err)

	records, err := New(a, Options{}).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"real.txt"}, relPaths(records))
}
