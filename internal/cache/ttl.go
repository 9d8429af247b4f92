// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

// Package cache provides a small thread-safe TTL cache used to shield the
// backend's health and listing endpoints from repeated calls.
package cache

import (
	"sync"
	"time"
)

// entry holds a cached value and the time it was captured.
// The entry is valid while now - capturedAt < ttl.
type entry[T any] struct {
	value      T
	capturedAt time.Time
}

// TTL is a thread-safe, lazily-expiring cache with a single time-to-live
// for all entries. Expired entries are indistinguishable from absent ones.
//
// On a write the capture time is reset, so both positive and negative facts
// (for example "backend is down") stay cached for a full TTL window.
type TTL[T any] struct {
	mu    sync.RWMutex
	name  string
	ttl   time.Duration
	items map[string]entry[T]

	hits   int64
	misses int64

	// now is replaceable for tests.
	now func() time.Time
}

// NewTTL creates a cache with the given name (used for metrics/logging)
// and time-to-live.
func NewTTL[T any](name string, ttl time.Duration) *TTL[T] {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TTL[T]{
		name:  name,
		ttl:   ttl,
		items: make(map[string]entry[T]),
		now:   time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		c.misses++
		var zero T
		return zero, false
	}
	if c.now().Sub(e.capturedAt) >= c.ttl {
		delete(c.items, key)
		c.misses++
		var zero T
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key, resetting its TTL window.
func (c *TTL[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[T]{value: value, capturedAt: c.now()}
}

// Invalidate removes key from the cache. Safe to call when absent.
func (c *TTL[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len returns the number of entries, expired ones included until their
// next read.
func (c *TTL[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Name returns the cache name given at construction.
func (c *TTL[T]) Name() string {
	return c.name
}

// Stats returns hit/miss counters and current size.
func (c *TTL[T]) Stats() (hits, misses int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.items)
}

// SetClock replaces the cache's time source. Intended for tests.
func (c *TTL[T]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
