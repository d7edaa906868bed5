package checksum

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Ning0612/storeopt/internal/domain"
)

// Opener opens files for reading; adapter.Adapter satisfies it
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Hasher computes the content digest of a single file
type Hasher struct {
	opener  Opener
	opts    Options
	algo    Algorithm
	timeout time.Duration
}

// NewHasher creates a hasher. A zero timeout disables the per-file deadline.
func NewHasher(opener Opener, algo Algorithm, opts Options, timeout time.Duration) *Hasher {
	return &Hasher{
		opener:  opener,
		opts:    opts,
		algo:    algo,
		timeout: timeout,
	}
}

type hashResult struct {
	digest domain.ContentDigest
	err    error
}

// HashFile returns the digest of the file at path.
// Read failures (permission, vanished file, I/O fault, timeout) are returned as
// *domain.UnreadableError. Cancellation of ctx itself is returned unwrapped.
//
// On timeout the read is abandoned, not interrupted: its goroutine keeps the
// file open until the blocked read returns. The caller's worker slot is freed
// immediately, so on a hung mount open handles may exceed the worker count.
func (h *Hasher) HashFile(ctx context.Context, path string) (domain.ContentDigest, error) {
	fileCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	// A read blocked on an unresponsive mount cannot observe ctx, so the
	// digest is computed in its own goroutine and abandoned on deadline.
	done := make(chan hashResult, 1)
	go func() {
		digest, err := h.hash(fileCtx, path)
		done <- hashResult{digest: digest, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", h.classify(ctx, path, res.err)
		}
		return res.digest, nil
	case <-fileCtx.Done():
		return "", h.classify(ctx, path, fileCtx.Err())
	}
}

func (h *Hasher) hash(ctx context.Context, path string) (domain.ContentDigest, error) {
	reader, err := h.opener.Open(ctx, path)
	if err != nil {
		return "", &domain.UnreadableError{Path: path, Op: "open", Err: err}
	}
	defer reader.Close()

	return Sum(ctx, reader, h.algo, h.opts)
}

// classify maps a hashing failure onto the error taxonomy
func (h *Hasher) classify(parent context.Context, path string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if domain.IsUnreadable(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.UnreadableError{Path: path, Op: "read", Err: domain.ErrTimeout}
	}
	return &domain.UnreadableError{Path: path, Op: "read", Err: err}
}
