// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package lookup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/civiceye/civiceye/clip"
	"github.com/civiceye/civiceye/overpass"
	"github.com/civiceye/civiceye/spatial"
	"github.com/civiceye/civiceye/staticmap"
)

// AddressClient resolves an address query to matching records.
type AddressClient interface {
	Lookup(ctx context.Context, req overpass.Request) ([]overpass.AddressRecord, error)
	InvalidateCache(req overpass.Request) error
}

// ThumbnailFetcher fetches a map thumbnail for a point.
type ThumbnailFetcher interface {
	Fetch(ctx context.Context, point spatial.Point) (*staticmap.Thumbnail, error)
}

// Ranker scores candidate thumbnails against a reference photo.
type Ranker interface {
	Rank(ctx context.Context, reference []byte, candidates []clip.Candidate) (map[string]float64, error)
}

// Pipeline runs a full address search: query, thumbnails, optional ranking.
type Pipeline struct {
	addresses AddressClient
	fetcher   ThumbnailFetcher
	ranker    Ranker

	// onThumbnail is invoked after each thumbnail attempt. Used for
	// progress reporting; may be nil.
	onThumbnail func(done, total int)
}

// NewPipeline creates a pipeline. The ranker may be nil to disable
// similarity ranking entirely.
func NewPipeline(addresses AddressClient, fetcher ThumbnailFetcher, ranker Ranker) *Pipeline {
	return &Pipeline{
		addresses: addresses,
		fetcher:   fetcher,
		ranker:    ranker,
	}
}

// OnThumbnail registers a progress callback invoked after each per-record
// thumbnail attempt.
func (p *Pipeline) OnThumbnail(fn func(done, total int)) {
	p.onThumbnail = fn
}

// Search executes the pipeline. Address lookup failures fail the whole
// search; thumbnail and ranking failures degrade it and leave a warning.
func (p *Pipeline) Search(ctx context.Context, req Request) (*Result, error) {
	query := overpass.Request{PostalCode: req.PostalCode, HouseNumber: req.HouseNumber}

	records, err := p.addresses.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &Result{Entries: make([]Entry, 0, len(records))}

	for i, record := range records {
		entry := Entry{
			Record: record,
			MapURL: ExternalMapURL(record.Point),
		}

		thumbnail, err := p.fetcher.Fetch(ctx, record.Point)
		if err != nil {
			log.Printf("no thumbnail for %s: %v", record.ID, err)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("no thumbnail available for %s", record.DisplayName))
		} else {
			entry.Thumbnail = thumbnail
		}

		result.Entries = append(result.Entries, entry)

		if p.onThumbnail != nil {
			p.onThumbnail(i+1, len(records))
		}
	}

	if len(req.Photo) > 0 {
		p.rank(ctx, req.Photo, result)
	}

	return result, nil
}

// InvalidateCache drops any memoized records for the given address.
func (p *Pipeline) InvalidateCache(postalCode, houseNumber string) error {
	return p.addresses.InvalidateCache(overpass.Request{
		PostalCode:  postalCode,
		HouseNumber: houseNumber,
	})
}

// rank scores entries against the reference photo and reorders them by
// descending similarity. Entries without a score keep their query order
// below every scored entry. A model failure leaves result unranked.
func (p *Pipeline) rank(ctx context.Context, photo []byte, result *Result) {
	if p.ranker == nil {
		result.Warnings = append(result.Warnings, "similarity ranking is disabled")

		return
	}

	candidates := make([]clip.Candidate, 0, len(result.Entries))

	for _, entry := range result.Entries {
		if entry.Thumbnail == nil {
			continue
		}

		candidates = append(candidates, clip.Candidate{
			ID:    entry.Record.ID,
			Image: entry.Thumbnail.Image,
		})
	}

	scores, err := p.ranker.Rank(ctx, photo, candidates)
	if err != nil {
		if errors.Is(err, clip.ErrModelUnavailable) {
			result.Warnings = append(result.Warnings,
				"similarity model unavailable, results are unranked")
		} else {
			log.Printf("similarity ranking failed: %v", err)
			result.Warnings = append(result.Warnings,
				"similarity ranking failed, results are unranked")
		}

		return
	}

	scored := false

	for i := range result.Entries {
		if score, ok := scores[result.Entries[i].Record.ID]; ok {
			s := score
			result.Entries[i].Score = &s
			scored = true
		}
	}

	// No thumbnail could be scored: the order cannot claim to be ranked.
	if !scored {
		result.Warnings = append(result.Warnings,
			"no thumbnail could be scored, results are unranked")

		return
	}

	sort.SliceStable(result.Entries, func(i, j int) bool {
		a, b := result.Entries[i].Score, result.Entries[j].Score
		switch {
		case a != nil && b != nil:
			return *a > *b
		case a != nil:
			return true
		default:
			return false
		}
	})

	result.Ranked = true
}
