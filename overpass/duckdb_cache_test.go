// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package overpass

import (
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/go-cmp/cmp"
)

func setupTestCache(t *testing.T) *DuckDBCache {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	cache := NewDuckDBCache(db)
	if err := cache.CreateSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return cache
}

func TestDuckDBCacheCreateSchema(t *testing.T) {
	cache := setupTestCache(t)

	var tableName string

	err := cache.DB().QueryRow(
		"SELECT table_name FROM information_schema.tables WHERE table_name = 'lookups'",
	).Scan(&tableName)
	if err != nil {
		t.Fatalf("Table not created: %v", err)
	}

	if tableName != "lookups" {
		t.Errorf("Expected table 'lookups', got '%s'", tableName)
	}

	// CreateSchema must be idempotent.
	if err := cache.CreateSchema(); err != nil {
		t.Fatalf("Second CreateSchema failed: %v", err)
	}
}

func TestDuckDBCacheRoundTrip(t *testing.T) {
	cache := setupTestCache(t)
	req := Request{PostalCode: "10115", HouseNumber: "5"}

	_, ok, err := cache.Get(req)
	if err != nil {
		t.Fatalf("Get on empty cache: %v", err)
	}

	if ok {
		t.Fatal("empty cache reported a hit")
	}

	if err := cache.Put(req, testRecords()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := cache.Get(req)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if !ok {
		t.Fatal("expected a cache hit")
	}

	if diff := cmp.Diff(testRecords(), got); diff != "" {
		t.Errorf("cached records mismatch (-want +got):\n%s", diff)
	}
}

func TestDuckDBCachePutReplaces(t *testing.T) {
	cache := setupTestCache(t)
	req := Request{PostalCode: "10115", HouseNumber: "5"}

	if err := cache.Put(req, testRecords()); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}

	replacement := testRecords()[:1]
	if err := cache.Put(req, replacement); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, ok, err := cache.Get(req)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}

	if len(got) != 1 {
		t.Errorf("expected 1 record after replacement, got %d", len(got))
	}
}

func TestDuckDBCacheEmptyResult(t *testing.T) {
	cache := setupTestCache(t)
	req := Request{PostalCode: "10115", HouseNumber: "99"}

	if err := cache.Put(req, nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := cache.Get(req)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if !ok {
		t.Fatal("memoized empty result must be a hit")
	}

	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestDuckDBCacheInvalidate(t *testing.T) {
	cache := setupTestCache(t)
	reqA := Request{PostalCode: "10115", HouseNumber: "5"}
	reqB := Request{PostalCode: "10117", HouseNumber: "7"}

	if err := cache.Put(reqA, testRecords()); err != nil {
		t.Fatalf("Put A failed: %v", err)
	}

	if err := cache.Put(reqB, testRecords()); err != nil {
		t.Fatalf("Put B failed: %v", err)
	}

	if err := cache.Invalidate(reqA); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	_, ok, err := cache.Get(reqA)
	if err != nil {
		t.Fatalf("Get A failed: %v", err)
	}

	if ok {
		t.Error("invalidated entry still present")
	}

	_, ok, err = cache.Get(reqB)
	if err != nil {
		t.Fatalf("Get B failed: %v", err)
	}

	if !ok {
		t.Error("unrelated entry was dropped")
	}

	if err := cache.InvalidateAll(); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}

	stats, err := cache.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.Lookups != 0 || stats.Records != 0 {
		t.Errorf("expected empty cache, got %+v", stats)
	}
}

func TestDuckDBCacheStats(t *testing.T) {
	cache := setupTestCache(t)

	if err := cache.Put(Request{PostalCode: "10115", HouseNumber: "5"}, testRecords()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stats, err := cache.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.Lookups != 1 {
		t.Errorf("Lookups = %d, want 1", stats.Lookups)
	}

	if stats.Records != 2 {
		t.Errorf("Records = %d, want 2", stats.Records)
	}

	if stats.Areas < 1 {
		t.Errorf("Areas = %d, want at least 1", stats.Areas)
	}
}
