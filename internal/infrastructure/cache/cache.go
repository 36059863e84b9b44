// Package cache stores encoded price resolutions between requests.
//
// Every store keys entries under a generation number. Invalidate bumps the
// generation, so entries written before a committed mutation are never
// served again even when they have not expired yet. Writes carry the
// generation their lookup ran under, and a write whose generation is stale
// is dropped: a resolution computed from data read before a commit cannot
// outlive the invalidation that followed it.
package cache

import (
	"context"
	"io"
)

// ResolutionStore is a resolution cache that can be invalidated as a whole
type ResolutionStore interface {
	Generation(ctx context.Context) (uint64, error)
	Get(ctx context.Context, key string) ([]byte, uint64, bool, error)
	SetAt(ctx context.Context, generation uint64, key string, value []byte) error
	Invalidate(ctx context.Context) error
	io.Closer
}
