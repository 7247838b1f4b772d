// Package cache holds collections keyed by query identity, with versioned
// entries so optimistic writers can detect when a later change landed.
package cache

import "sync"

type entry[T any] struct {
	items   []T
	version uint64
}

// Snapshot captures a key's pre-image and the version its optimistic
// transform produced, for later rollback or guarded revalidation.
type Snapshot[T any] struct {
	Key     string
	Items   []T
	Version uint64
}

// Keyed is a mutex-guarded collection cache. Every write bumps the entry
// version; RestoreAt and PutAt refuse to act when the version has moved on.
type Keyed[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
}

func NewKeyed[T any]() *Keyed[T] {
	return &Keyed[T]{entries: make(map[string]*entry[T])}
}

// Get returns the cached collection for key.
func (c *Keyed[T]) Get(key string) ([]T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.items, true
}

// Put stores an authoritative collection for key.
func (c *Keyed[T]) Put(key string, items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{}
		c.entries[key] = e
	}
	e.items = items
	e.version++
}

// PutAt stores items for key only if the entry is still at version.
// Returns false when a later write already landed.
func (c *Keyed[T]) PutAt(key string, version uint64, items []T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.version != version {
		return false
	}
	e.items = items
	e.version++
	return true
}

// Version reports the current version of key.
func (c *Keyed[T]) Version(key string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return e.version, true
}

// ApplyLocal rewrites every cached collection whose key matches, returning
// one snapshot per touched key. Transforms for the same key apply in call
// order. A selector matching nothing is a no-op.
func (c *Keyed[T]) ApplyLocal(match func(key string) bool, transform func([]T) []T) []Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	var snaps []Snapshot[T]
	for key, e := range c.entries {
		if !match(key) {
			continue
		}
		prev := e.items
		e.items = transform(append([]T(nil), prev...))
		e.version++
		snaps = append(snaps, Snapshot[T]{Key: key, Items: prev, Version: e.version})
	}
	return snaps
}

// RestoreAt puts the snapshot's pre-image back, but only if no later
// transform landed on the key since the snapshot was taken.
func (c *Keyed[T]) RestoreAt(s Snapshot[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[s.Key]
	if !ok || e.version != s.Version {
		return false
	}
	e.items = s.Items
	e.version++
	return true
}

// DropAt removes the entry for key only if it is still at version, so a
// failed refetch cannot discard a later writer's optimistic state.
func (c *Keyed[T]) DropAt(key string, version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.version != version {
		return false
	}
	delete(c.entries, key)
	return true
}

// Invalidate drops every entry whose key matches.
func (c *Keyed[T]) Invalidate(match func(key string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
		}
	}
}

// Keys returns the currently cached keys.
func (c *Keyed[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}
