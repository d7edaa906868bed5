package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// FileRecord is an immutable snapshot of a regular file taken at scan time
type FileRecord struct {
	// Path is the absolute path of the file
	Path string `json:"path" yaml:"path"`

	// RelPath is the slash-separated path relative to the scan root
	RelPath string `json:"rel_path" yaml:"rel_path"`

	// Size in bytes
	Size int64 `json:"size" yaml:"size"`

	// Ext is the lowercase extension including the leading dot ("" if none)
	Ext string `json:"ext" yaml:"ext"`

	// ModTime is the last modification time reported by the filesystem
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// NewFileRecord builds a record for a file below root
func NewFileRecord(root, path string, size int64, modTime time.Time) FileRecord {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return FileRecord{
		Path:    path,
		RelPath: filepath.ToSlash(rel),
		Size:    size,
		Ext:     strings.ToLower(filepath.Ext(path)),
		ModTime: modTime,
	}
}

// Name returns the base name of the file
func (f FileRecord) Name() string {
	return filepath.Base(f.Path)
}

// CandidateList is a path-unique, insertion-ordered set of files
type CandidateList struct {
	files []FileRecord
	seen  map[string]struct{}
}

// NewCandidateList creates an empty candidate list
func NewCandidateList() *CandidateList {
	return &CandidateList{seen: make(map[string]struct{})}
}

// Add appends f unless a record with the same path is already present.
// Returns true if the record was added.
func (c *CandidateList) Add(f FileRecord) bool {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, ok := c.seen[f.Path]; ok {
		return false
	}
	c.seen[f.Path] = struct{}{}
	c.files = append(c.files, f)
	return true
}

// Contains reports whether a file with the given path is in the list
func (c *CandidateList) Contains(path string) bool {
	if c == nil {
		return false
	}
	_, ok := c.seen[path]
	return ok
}

// Len returns the number of files
func (c *CandidateList) Len() int {
	if c == nil {
		return 0
	}
	return len(c.files)
}

// Files returns a copy of the records in insertion order
func (c *CandidateList) Files() []FileRecord {
	if c == nil {
		return nil
	}
	out := make([]FileRecord, len(c.files))
	copy(out, c.files)
	return out
}

// Paths returns the file paths in insertion order
func (c *CandidateList) Paths() []string {
	if c == nil {
		return []string{}
	}
	paths := make([]string, len(c.files))
	for i, f := range c.files {
		paths[i] = f.Path
	}
	return paths
}

// TotalSize returns the sum of the member sizes
func (c *CandidateList) TotalSize() int64 {
	if c == nil {
		return 0
	}
	var total int64
	for _, f := range c.files {
		total += f.Size
	}
	return total
}

// NodeKind is the type of a DirectoryNode
type NodeKind string

const (
	KindFile      NodeKind = "file"
	KindDirectory NodeKind = "directory"
)

// MaxDepthMarker replaces the children of directories below the depth bound
const MaxDepthMarker = "max depth reached"

// DirectoryNode summarizes one entry of the directory tree
type DirectoryNode struct {
	Name string   `json:"name" yaml:"name"`
	Kind NodeKind `json:"type" yaml:"type"`

	// Size is the file size, or the recursive sum of all files for directories
	Size int64 `json:"size" yaml:"size"`

	// Children is nil for files and for directories below the depth bound
	Children map[string]*DirectoryNode `json:"subitems,omitempty" yaml:"subitems,omitempty"`

	// Truncated holds MaxDepthMarker when children were not expanded
	Truncated string `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// IsDir returns true if this node is a directory
func (n *DirectoryNode) IsDir() bool {
	return n.Kind == KindDirectory
}
