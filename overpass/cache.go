// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package overpass

import (
	"maps"
	"slices"
	"sync"
)

// LookupCache memoizes idempotent lookups keyed by (postal_code,
// house_number). Implementations must be safe for concurrent use; the web
// server serves lookups from multiple goroutines.
type LookupCache interface {
	// Get returns the memoized records and whether the key was present.
	Get(req Request) ([]AddressRecord, bool, error)

	// Put memoizes the records for the request. An empty result set is
	// memoized too; "no matches" is a valid answer.
	Put(req Request, records []AddressRecord) error

	// Invalidate drops a single memoized entry.
	Invalidate(req Request) error

	// InvalidateAll drops every memoized entry.
	InvalidateAll() error
}

// MemoryCache is the default in-memory LookupCache. Entries live for the
// process lifetime or until invalidated.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]AddressRecord
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string][]AddressRecord),
	}
}

// Get implements LookupCache.
func (c *MemoryCache) Get(req Request) ([]AddressRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, ok := c.entries[req.Key()]
	if !ok {
		return nil, false, nil
	}

	// Callers must not be able to mutate the memoized records.
	return cloneRecords(records), true, nil
}

// Put implements LookupCache.
func (c *MemoryCache) Put(req Request, records []AddressRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[req.Key()] = cloneRecords(records)

	return nil
}

// cloneRecords copies the slice and the per-record Tags maps, so neither
// side can reach the other's data through a shared map.
func cloneRecords(records []AddressRecord) []AddressRecord {
	out := slices.Clone(records)
	for i := range out {
		out[i].Tags = maps.Clone(out[i].Tags)
	}

	return out
}

// Invalidate implements LookupCache.
func (c *MemoryCache) Invalidate(req Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, req.Key())

	return nil
}

// InvalidateAll implements LookupCache.
func (c *MemoryCache) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]AddressRecord)

	return nil
}

// Len returns the number of memoized lookups.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
