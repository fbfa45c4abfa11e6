// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

// Package lookup ties address search, thumbnail fetching and optional
// similarity ranking into one pipeline.
package lookup

import (
	"fmt"

	"github.com/civiceye/civiceye/overpass"
	"github.com/civiceye/civiceye/spatial"
	"github.com/civiceye/civiceye/staticmap"
	"github.com/civiceye/civiceye/utils/textutils"
)

// Request is one address search, optionally with a reference photo for
// similarity ranking.
type Request struct {
	PostalCode  string `json:"postal_code"`
	HouseNumber string `json:"house_number"`

	// Photo is the reference image. Empty disables ranking.
	Photo []byte `json:"-"`
}

// Entry is one matched address with its presentation data.
type Entry struct {
	Record overpass.AddressRecord `json:"record"`

	// Thumbnail is nil when every provider failed for this record.
	Thumbnail *staticmap.Thumbnail `json:"thumbnail,omitempty"`

	// Score is the similarity against the reference photo. Nil when
	// ranking was disabled, unavailable, or this record has no thumbnail.
	Score *float64 `json:"score,omitempty"`

	// MapURL opens the location in an external map service.
	MapURL string `json:"map_url"`
}

// Result is a completed search.
type Result struct {
	Entries []Entry `json:"entries"`

	// Ranked reports whether entries are ordered by similarity.
	Ranked bool `json:"ranked"`

	// Warnings describe partial failures the search survived.
	Warnings []string `json:"warnings,omitempty"`
}

// ExternalMapURL returns a link that opens the point in Google Maps.
func ExternalMapURL(point spatial.Point) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%f,%f", point.Lat, point.Lon)
}

// DistinctStreets returns the street labels of the result in first-seen
// order. OSM mappers are inconsistent about case and diacritics, so labels
// are compared ASCII-folded; the first spelling encountered wins.
func DistinctStreets(result *Result) []string {
	seen := make(map[string]bool, len(result.Entries))

	var streets []string

	for _, entry := range result.Entries {
		street := entry.Record.Street
		if street == "" {
			continue
		}

		key := textutils.LowerASCIIFolding(street)
		if seen[key] {
			continue
		}

		seen[key] = true

		streets = append(streets, street)
	}

	return streets
}
