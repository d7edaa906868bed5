// Package classify flags files as compression or offload candidates.
// Both classifiers are pure predicates over domain.FileRecord; no file
// content is read.
package classify

import (
	"strings"

	"github.com/Ning0612/storeopt/internal/domain"
)

// DefaultCompressibleExtensions are the extensions considered losslessly compressible
func DefaultCompressibleExtensions() []string {
	return []string{
		".json", ".txt", ".md", ".js", ".css", ".html",
		".xml", ".csv", ".log", ".sql", ".config",
	}
}

// DefaultMinCompressSize is the size a file must exceed to be worth compressing
const DefaultMinCompressSize int64 = 1024

// DefaultOffloadKeywords mark files that belong in secondary storage
func DefaultOffloadKeywords() []string {
	return []string{"backup", "cache", "archive", "old", "temp", "previous", "snapshot"}
}

// Classifier decides whether a file belongs to a candidate category
type Classifier interface {
	Match(f domain.FileRecord) bool
}

// Collect runs c over records and returns the path-unique matches in input order
func Collect(c Classifier, records []domain.FileRecord) *domain.CandidateList {
	list := domain.NewCandidateList()
	for _, f := range records {
		if c.Match(f) {
			list.Add(f)
		}
	}
	return list
}

// Compression matches files by extension allow-list and minimum size
type Compression struct {
	extensions map[string]struct{}
	minSize    int64
}

// NewCompression creates a compression classifier.
// Extensions are compared case-insensitively; a file qualifies when its size
// is strictly greater than minSize.
func NewCompression(extensions []string, minSize int64) *Compression {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return &Compression{extensions: set, minSize: minSize}
}

// Match implements Classifier
func (c *Compression) Match(f domain.FileRecord) bool {
	if f.Size <= c.minSize {
		return false
	}
	_, ok := c.extensions[strings.ToLower(f.Ext)]
	return ok
}

// Offload matches files whose name or path contains a keyword
type Offload struct {
	keywords []string
}

// NewOffload creates an offload classifier
func NewOffload(keywords []string) *Offload {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(k); k != "" {
			kw = append(kw, k)
		}
	}
	return &Offload{keywords: kw}
}

// Match implements Classifier. The file name is compared case-insensitively;
// the root-relative path is compared as-is.
func (o *Offload) Match(f domain.FileRecord) bool {
	name := strings.ToLower(f.Name())
	for _, k := range o.keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	for _, k := range o.keywords {
		if strings.Contains(f.RelPath, k) {
			return true
		}
	}
	return false
}

// MatchedKeywords returns every keyword the file matches, for diagnostics
func (o *Offload) MatchedKeywords(f domain.FileRecord) []string {
	name := strings.ToLower(f.Name())
	var matched []string
	for _, k := range o.keywords {
		if strings.Contains(name, k) || strings.Contains(f.RelPath, k) {
			matched = append(matched, k)
		}
	}
	return matched
}
