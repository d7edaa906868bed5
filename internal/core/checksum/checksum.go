// Package checksum computes content digests by streaming file bytes through
// a hash function in fixed-size chunks.
package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/Ning0612/storeopt/internal/domain"
)

// Algorithm names a content hash function
type Algorithm string

const (
	// MD5 is faster; adequate for comparing content of a trusted tree
	MD5 Algorithm = "md5"
	// SHA256 is the default
	SHA256 Algorithm = "sha256"
)

var constructors = map[Algorithm]func() hash.Hash{
	MD5:    md5.New,
	SHA256: sha256.New,
}

// IsSupported checks if the given algorithm is supported
func IsSupported(algo Algorithm) bool {
	_, ok := constructors[algo]
	return ok
}

// DefaultChunkSize is the read size used when streaming file content
const DefaultChunkSize = 4 * 1024

// Options configures streaming
type Options struct {
	// ChunkSize bounds the bytes held in memory per file; <= 0 selects DefaultChunkSize
	ChunkSize int
}

// DefaultOptions returns the recommended default options
func DefaultOptions() Options {
	return Options{ChunkSize: DefaultChunkSize}
}

// Sum streams r through algo and returns the hex digest.
// Memory use is one chunk regardless of content length; ctx is checked between chunks.
func Sum(ctx context.Context, r io.Reader, algo Algorithm, opts Options) (domain.ContentDigest, error) {
	newHash, ok := constructors[algo]
	if !ok {
		return "", fmt.Errorf("unsupported algorithm: %s", algo)
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	h := newHash()
	chunk := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := r.Read(chunk)
		if n > 0 {
			// hash.Hash.Write never returns an error
			h.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	return domain.ContentDigest(hex.EncodeToString(h.Sum(nil))), nil
}
