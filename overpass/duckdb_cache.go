// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package overpass

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/civiceye/civiceye/spatial"
)

// DuckDBCache is a LookupCache persisted in DuckDB. It survives restarts,
// stores only idempotent Overpass lookups, and indexes each record's
// position with H3 cells so cached matches can be inspected spatially.
type DuckDBCache struct {
	db *sql.DB
}

// NewDuckDBCache wraps an open DuckDB handle.
func NewDuckDBCache(db *sql.DB) *DuckDBCache {
	return &DuckDBCache{db: db}
}

// DB exposes the underlying handle.
func (c *DuckDBCache) DB() *sql.DB {
	return c.db
}

// CreateSchema creates the cache tables if they do not exist.
func (c *DuckDBCache) CreateSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lookups (
			postal_code VARCHAR NOT NULL,
			house_number VARCHAR NOT NULL,
			fetched_at TIMESTAMP NOT NULL,
			record_count INTEGER NOT NULL,
			PRIMARY KEY (postal_code, house_number)
		)`,
		`CREATE TABLE IF NOT EXISTS lookup_records (
			postal_code VARCHAR NOT NULL,
			house_number VARCHAR NOT NULL,
			seq INTEGER NOT NULL,
			osm_id VARCHAR NOT NULL,
			point VARCHAR NOT NULL,
			street VARCHAR,
			city VARCHAR,
			display_name VARCHAR NOT NULL,
			tags VARCHAR,
			h3_res7 BIGINT,
			h3_res8 BIGINT,
			h3_res9 BIGINT,
			PRIMARY KEY (postal_code, house_number, seq)
		)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating cache schema: %w", err)
		}
	}

	return nil
}

// Get implements LookupCache.
func (c *DuckDBCache) Get(req Request) ([]AddressRecord, bool, error) {
	var count int

	err := c.db.QueryRow(
		`SELECT record_count FROM lookups WHERE postal_code = ? AND house_number = ?`,
		req.PostalCode, req.HouseNumber,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading cached lookup: %w", err)
	}

	rows, err := c.db.Query(
		`SELECT osm_id, point, street, city, display_name, tags
		 FROM lookup_records
		 WHERE postal_code = ? AND house_number = ?
		 ORDER BY seq`,
		req.PostalCode, req.HouseNumber,
	)
	if err != nil {
		return nil, false, fmt.Errorf("reading cached records: %w", err)
	}
	defer rows.Close()

	records := make([]AddressRecord, 0, count)

	for rows.Next() {
		var (
			record AddressRecord
			street sql.NullString
			city   sql.NullString
			tags   sql.NullString
		)

		if err := rows.Scan(
			&record.ID,
			&record.Point,
			&street,
			&city,
			&record.DisplayName,
			&tags,
		); err != nil {
			return nil, false, fmt.Errorf("scanning cached record: %w", err)
		}

		record.Street = street.String
		record.City = city.String

		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &record.Tags); err != nil {
				return nil, false, fmt.Errorf("decoding cached tags: %w", err)
			}
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating cached records: %w", err)
	}

	return records, true, nil
}

// Put implements LookupCache. The previous entry for the key, if any, is
// replaced atomically.
func (c *DuckDBCache) Put(req Request, records []AddressRecord) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("starting cache transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := deleteLookup(tx, req); err != nil {
		return err
	}

	if _, err := tx.Exec(
		`INSERT INTO lookups (postal_code, house_number, fetched_at, record_count) VALUES (?, ?, ?, ?)`,
		req.PostalCode, req.HouseNumber, time.Now().UTC(), len(records),
	); err != nil {
		return fmt.Errorf("inserting lookup: %w", err)
	}

	for seq, record := range records {
		cells, err := computeH3Cells(record.Point)
		if err != nil {
			return err
		}

		var tags any

		if len(record.Tags) > 0 {
			encoded, err := json.Marshal(record.Tags)
			if err != nil {
				return fmt.Errorf("encoding tags: %w", err)
			}

			tags = string(encoded)
		}

		if _, err := tx.Exec(
			`INSERT INTO lookup_records
			 (postal_code, house_number, seq, osm_id, point, street, city, display_name, tags, h3_res7, h3_res8, h3_res9)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.PostalCode,
			req.HouseNumber,
			seq,
			record.ID,
			record.Point,
			nullIfEmpty(record.Street),
			nullIfEmpty(record.City),
			record.DisplayName,
			tags,
			cells[0],
			cells[1],
			cells[2],
		); err != nil {
			return fmt.Errorf("inserting cached record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache transaction: %w", err)
	}

	return nil
}

// Invalidate implements LookupCache.
func (c *DuckDBCache) Invalidate(req Request) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("starting cache transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := deleteLookup(tx, req); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache transaction: %w", err)
	}

	return nil
}

// InvalidateAll implements LookupCache.
func (c *DuckDBCache) InvalidateAll() error {
	if _, err := c.db.Exec(`DELETE FROM lookup_records`); err != nil {
		return fmt.Errorf("clearing cached records: %w", err)
	}

	if _, err := c.db.Exec(`DELETE FROM lookups`); err != nil {
		return fmt.Errorf("clearing cached lookups: %w", err)
	}

	return nil
}

// CacheStats summarizes the cache content.
type CacheStats struct {
	Lookups int `json:"lookups"`
	Records int `json:"records"`

	// Areas is the number of distinct H3 resolution-7 cells covered by the
	// cached records, a rough measure of geographic spread.
	Areas int `json:"areas"`
}

// Stats reports cache usage counters.
func (c *DuckDBCache) Stats() (*CacheStats, error) {
	var stats CacheStats

	query := `
		SELECT
			(SELECT count(*) FROM lookups) AS lookups,
			(SELECT count(*) FROM lookup_records) AS records,
			(SELECT count(DISTINCT h3_res7) FROM lookup_records) AS areas
	`
	if err := c.db.QueryRow(query).Scan(&stats.Lookups, &stats.Records, &stats.Areas); err != nil {
		return nil, fmt.Errorf("reading cache stats: %w", err)
	}

	return &stats, nil
}

func deleteLookup(tx *sql.Tx, req Request) error {
	if _, err := tx.Exec(
		`DELETE FROM lookup_records WHERE postal_code = ? AND house_number = ?`,
		req.PostalCode, req.HouseNumber,
	); err != nil {
		return fmt.Errorf("deleting cached records: %w", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM lookups WHERE postal_code = ? AND house_number = ?`,
		req.PostalCode, req.HouseNumber,
	); err != nil {
		return fmt.Errorf("deleting cached lookup: %w", err)
	}

	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}

// computeH3Cells indexes a point at resolutions 7, 8 and 9.
func computeH3Cells(p spatial.Point) ([3]int64, error) {
	var cells [3]int64

	latLng := h3.NewLatLng(p.Lat, p.Lon)

	for i, res := range []int{7, 8, 9} {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return cells, fmt.Errorf("converting to h3 cell at res %d: %w", res, err)
		}

		cells[i] = int64(cell)
	}

	return cells, nil
}
