// Package cache provides the Template Cache of SPEC_FULL §2/§4.3: a
// byte-level cache of template sources already fetched through a
// repository.Source, keyed by the resolved source key. This caches
// fetched bytes only — it is not workflow-run persistence, which the
// core explicitly excludes (spec §1 Non-goals, §9).
package cache

import "context"

// Cache stores and retrieves fetched template bytes by key. The key is
// whatever a repository.Source's Resolve returns for a given template
// reference, so the same reference always maps to the same cache entry.
type Cache interface {
	// Get returns the cached bytes for key, or ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, overwriting any prior entry.
	Put(ctx context.Context, key string, data []byte) error
}

// withContext is a standalone generic helper function.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	default:
		return fn()
	}
}
