// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// CreateTestFile writes content to dir/name, creating parents. name is slash-separated.
func CreateTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := mkParent(t, dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// CreateTestFileWithSize writes size pseudo-random bytes to dir/name.
// The bytes are incompressible and the same for a given size.
func CreateTestFileWithSize(t *testing.T, dir, name string, size int64) string {
	t.Helper()

	path := mkParent(t, dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	defer f.Close()

	var seed [32]byte
	seed[0] = byte(size)
	if _, err := io.CopyN(f, rand.NewChaCha8(seed), size); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func mkParent(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	return path
}

// MemTree builds an afero.MemMapFs rooted at root.
// Keys are slash-separated and relative to root; a trailing slash makes an empty directory.
func MemTree(t *testing.T, root string, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(root, 0755); err != nil {
		t.Fatalf("failed to create root: %v", err)
	}

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			if err := fs.MkdirAll(path, 0755); err != nil {
				t.Fatalf("failed to create dir %s: %v", name, err)
			}
			continue
		}
		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create parent of %s: %v", name, err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return fs
}
