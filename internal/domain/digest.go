package domain

// ShortDigestLen is the prefix length used to key duplicate groups in reports
const ShortDigestLen = 8

// ContentDigest is the hex-encoded hash of a file's full content
type ContentDigest string

// Short returns the report key prefix of the digest
func (d ContentDigest) Short() string {
	if len(d) <= ShortDigestLen {
		return string(d)
	}
	return string(d[:ShortDigestLen])
}

// DuplicateGroup is a set of two or more files sharing a content digest.
// Files are kept in discovery order.
type DuplicateGroup struct {
	Digest ContentDigest `json:"digest" yaml:"digest"`
	Files  []FileRecord  `json:"files" yaml:"files"`
}

// Count returns the number of members
func (g DuplicateGroup) Count() int {
	return len(g.Files)
}

// MemberSize returns the size shared by all members
func (g DuplicateGroup) MemberSize() int64 {
	if len(g.Files) == 0 {
		return 0
	}
	return g.Files[0].Size
}

// WastedSpace is (members - 1) * member size
func (g DuplicateGroup) WastedSpace() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return int64(len(g.Files)-1) * g.MemberSize()
}

// Paths returns the member paths in discovery order
func (g DuplicateGroup) Paths() []string {
	paths := make([]string, len(g.Files))
	for i, f := range g.Files {
		paths[i] = f.Path
	}
	return paths
}
