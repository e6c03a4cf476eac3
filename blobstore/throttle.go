package blobstore

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledStore wraps a Store and rate-limits Put bandwidth.
//
// Useful when snapshots of large tables share an uplink with serving traffic:
// the limiter is charged one token per byte written.
type ThrottledStore struct {
	inner   Store
	limiter *rate.Limiter
}

// NewThrottledStore creates a ThrottledStore writing at most bytesPerSec,
// with the given burst size in bytes.
func NewThrottledStore(inner Store, bytesPerSec float64, burst int) *ThrottledStore {
	return &ThrottledStore{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

// Open opens a blob for reading. Reads are not throttled.
func (s *ThrottledStore) Open(ctx context.Context, name string) (Blob, error) {
	return s.inner.Open(ctx, name)
}

// Put waits for bandwidth budget, then writes the blob.
// Blobs larger than the burst size are charged in burst-sized installments.
func (s *ThrottledStore) Put(ctx context.Context, name string, data []byte) error {
	remaining := len(data)
	for remaining > 0 {
		n := remaining
		if n > s.limiter.Burst() {
			n = s.limiter.Burst()
		}
		if err := s.limiter.WaitN(ctx, n); err != nil {
			return err
		}
		remaining -= n
	}
	return s.inner.Put(ctx, name, data)
}

// Delete removes a blob.
func (s *ThrottledStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List returns blob names with the given prefix.
func (s *ThrottledStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}
