// Package reconcile implements the optimistic mutation protocol used for
// every cached collection: rewrite the local copy first, commit once, then
// revalidate from the source of truth or roll the local copy back.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifeboard/internal/apperr"
	"lifeboard/internal/cache"
)

// Fetch loads the authoritative collection for a cache key.
type Fetch[T any] func(ctx context.Context, key string) ([]T, error)

// Mutation describes one optimistic write.
type Mutation[T any] struct {
	// Match selects which cached collections the transform applies to.
	Match func(key string) bool
	// Transform rewrites a cached collection. Must be pure.
	Transform func(items []T) []T
	// Commit performs the authoritative write. Called exactly once.
	Commit func(ctx context.Context) error
}

// Reconciler applies optimistic mutations to a keyed cache and keeps it
// consistent with the backing store.
type Reconciler[T any] struct {
	cache   *cache.Keyed[T]
	fetch   Fetch[T]
	timeout time.Duration
}

// New builds a reconciler. A zero timeout disables the commit deadline.
func New[T any](c *cache.Keyed[T], fetch Fetch[T], timeout time.Duration) *Reconciler[T] {
	return &Reconciler[T]{cache: c, fetch: fetch, timeout: timeout}
}

// Lookup returns the collection for key, fetching and caching it on a miss.
func (r *Reconciler[T]) Lookup(ctx context.Context, key string) ([]T, error) {
	if items, ok := r.cache.Get(key); ok {
		return items, nil
	}
	items, err := r.fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	r.cache.Put(key, items)
	return items, nil
}

// Do runs one optimistic mutation: the transform is applied to every
// matching collection immediately, then the commit is attempted exactly
// once. On success each touched key is revalidated from the store; on
// failure each pre-image is restored and the error returned. Either way,
// a key that a later operation has transformed in the meantime is left
// alone; that operation's own resolution brings the truth.
func (r *Reconciler[T]) Do(ctx context.Context, m Mutation[T]) error {
	snaps := r.cache.ApplyLocal(m.Match, m.Transform)

	commitCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		commitCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := m.Commit(commitCtx); err != nil {
		for _, s := range snaps {
			r.cache.RestoreAt(s)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return apperr.Wrap(apperr.KindNetwork, "commit timed out", err)
		}
		return err
	}

	for _, s := range snaps {
		if err := r.revalidateAt(ctx, s.Key, s.Version); err != nil {
			return fmt.Errorf("revalidate %q: %w", s.Key, err)
		}
	}
	return nil
}

// revalidateAt refetches key on behalf of the operation that produced
// version. If a later operation's transform has already landed, the refetch
// is skipped entirely and that operation's own resolution stands.
func (r *Reconciler[T]) revalidateAt(ctx context.Context, key string, version uint64) error {
	current, ok := r.cache.Version(key)
	if !ok || current != version {
		return nil
	}
	items, err := r.fetch(ctx, key)
	if err != nil {
		// Drop the unconfirmed entry, unless a later transform landed
		// while the fetch was in flight.
		r.cache.DropAt(key, version)
		return err
	}
	r.cache.PutAt(key, version, items)
	return nil
}

// Revalidate refetches key from the store and replaces the cached value,
// unless another optimistic transform lands mid-flight; then the fetched
// result is discarded instead of clobbering it.
func (r *Reconciler[T]) Revalidate(ctx context.Context, key string) error {
	version, ok := r.cache.Version(key)
	if !ok {
		return nil
	}
	items, err := r.fetch(ctx, key)
	if err != nil {
		// Drop the entry so the next Lookup retries the fetch rather
		// than serving the unconfirmed optimistic value. A key a later
		// transform touched is left for that operation to resolve.
		r.cache.DropAt(key, version)
		return err
	}
	r.cache.PutAt(key, version, items)
	return nil
}

// InvalidateAll drops every cached collection. Wired to a periodic sweep so
// no optimistic residue from a hung caller can outlive one sweep interval.
func (r *Reconciler[T]) InvalidateAll() {
	r.cache.Invalidate(func(string) bool { return true })
}
