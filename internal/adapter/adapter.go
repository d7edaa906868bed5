package adapter

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Adapter defines the filesystem operations the engine needs.
// Paths may be absolute (must lie within Root) or relative to Root.
// Implementations return domain-level errors for consistent error handling.
type Adapter interface {
	// Root returns the absolute root this adapter is confined to
	Root() string

	// Walk visits every entry below path in lexical order.
	// Per-entry errors are passed to fn; returning nil from fn continues the walk.
	Walk(ctx context.Context, path string, fn filepath.WalkFunc) error

	// ReadDir lists the entries of a directory sorted by name
	// Returns domain.ErrNotFound if path doesn't exist
	// Returns domain.ErrNotDirectory if path is a file
	ReadDir(ctx context.Context, path string) ([]os.FileInfo, error)

	// Open opens a regular file for reading
	// Caller is responsible for closing the reader
	// Returns domain.ErrNotFile if path is a directory
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Stat returns metadata for a single path without following symlinks
	Stat(ctx context.Context, path string) (os.FileInfo, error)

	// WriteFile atomically creates or replaces a file with the content of r
	// Parent directories are created automatically
	WriteFile(ctx context.Context, path string, r io.Reader) error

	// Remove deletes a single file
	Remove(ctx context.Context, path string) error

	// Close releases any resources held by the adapter
	Close() error
}
