package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/afero"

	"github.com/Ning0612/storeopt/internal/domain"
)

// TempSuffix marks in-flight writes; WriteFile renames it into place
const TempSuffix = ".storeopt.tmp"

// Adapter implements the adapter.Adapter interface on top of an afero.Fs
type Adapter struct {
	fs   afero.Fs
	root string
}

// New creates an adapter for the local operating system filesystem
// root must point to an existing directory
func New(root string) (*Adapter, error) {
	return NewWithFs(afero.NewOsFs(), root)
}

// NewWithFs creates an adapter over an arbitrary afero filesystem
func NewWithFs(fs afero.Fs, root string) (*Adapter, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := fs.Stat(absRoot)
	if err != nil {
		return nil, MapError(err)
	}
	if !info.IsDir() {
		return nil, domain.ErrNotDirectory
	}

	return &Adapter{fs: fs, root: absRoot}, nil
}

// Root returns the root path of this adapter
func (a *Adapter) Root() string {
	return a.root
}

// Fs returns the underlying filesystem
func (a *Adapter) Fs() afero.Fs {
	return a.fs
}

// resolvePath resolves a path to an absolute path within root
// Returns domain.ErrPermissionDenied if path attempts to escape root
func (a *Adapter) resolvePath(path string) (string, error) {
	if path == "" || path == "." {
		return a.root, nil
	}

	path = filepath.Clean(filepath.FromSlash(path))

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(a.root, path)
	}

	// filepath.Rel handles root="/data" vs fullPath="/data2"
	rel, err := filepath.Rel(a.root, fullPath)
	if err != nil {
		return "", domain.ErrPermissionDenied
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.ErrPermissionDenied
	}

	return fullPath, nil
}

// Walk visits every entry below path
func (a *Adapter) Walk(ctx context.Context, path string, fn filepath.WalkFunc) error {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return err
	}

	return afero.Walk(a.fs, fullPath, func(p string, info os.FileInfo, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if walkErr != nil {
			walkErr = &os.PathError{Op: "walk", Path: p, Err: MapError(walkErr)}
		}
		return fn(p, info, walkErr)
	})
}

// ReadDir lists the entries of a directory sorted by name
func (a *Adapter) ReadDir(ctx context.Context, path string) ([]os.FileInfo, error) {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	info, err := a.lstat(fullPath)
	if err != nil {
		return nil, MapError(err)
	}
	if !info.IsDir() {
		return nil, domain.ErrNotDirectory
	}

	entries, err := afero.ReadDir(a.fs, fullPath)
	if err != nil {
		return nil, MapError(err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	return entries, nil
}

// Open opens a regular file for reading
func (a *Adapter) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return nil, err
	}

	info, err := a.fs.Stat(fullPath)
	if err != nil {
		return nil, MapError(err)
	}
	if info.IsDir() {
		return nil, domain.ErrNotFile
	}

	file, err := a.fs.Open(fullPath)
	if err != nil {
		return nil, MapError(err)
	}

	return file, nil
}

// Stat returns metadata for a single path without following symlinks
func (a *Adapter) Stat(ctx context.Context, path string) (os.FileInfo, error) {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return nil, err
	}

	info, err := a.lstat(fullPath)
	if err != nil {
		return nil, MapError(err)
	}
	return info, nil
}

// WriteFile streams r into path+TempSuffix and renames it over path,
// so readers never observe a half-written file.
func (a *Adapter) WriteFile(ctx context.Context, path string, r io.Reader) (err error) {
	target, err := a.resolvePath(path)
	if err != nil {
		return err
	}
	if err := a.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return MapError(err)
	}

	tmp := target + TempSuffix
	f, err := a.fs.Create(tmp)
	if err != nil {
		return MapError(err)
	}
	defer func() {
		if err != nil {
			a.fs.Remove(tmp)
		}
	}()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return MapError(a.fs.Rename(tmp, target))
}

// Remove deletes a single file
func (a *Adapter) Remove(ctx context.Context, path string) error {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return err
	}
	return MapError(a.fs.Remove(fullPath))
}

// Close releases any resources (no-op for local adapter)
func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) lstat(path string) (os.FileInfo, error) {
	if lst, ok := a.fs.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(path)
		return info, err
	}
	return a.fs.Stat(path)
}

// osErrors maps OS conditions onto the domain sentinels, checked in order
var osErrors = []struct {
	match  func(error) bool
	domain error
}{
	{os.IsNotExist, domain.ErrNotFound},
	{os.IsPermission, domain.ErrPermissionDenied},
	{os.IsExist, domain.ErrAlreadyExists},
	{func(err error) bool { return errors.Is(err, syscall.ENOTDIR) }, domain.ErrNotDirectory},
}

// MapError converts OS errors to domain errors. Errors that already carry a
// domain sentinel, and errors with no mapping, pass through unchanged.
func MapError(err error) error {
	if err == nil || domain.IsDomainError(err) {
		return err
	}
	for _, m := range osErrors {
		if m.match(err) {
			return m.domain
		}
	}
	return err
}
