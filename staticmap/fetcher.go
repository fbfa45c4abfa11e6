// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package staticmap

import (
	"context"
	"errors"
	"log"

	"github.com/civiceye/civiceye/spatial"
)

// Fetcher retrieves a thumbnail from the primary provider and falls back to
// the secondary when the primary fails for any reason (missing credential,
// quota, network).
type Fetcher struct {
	primary  Provider
	fallback Provider
}

// NewFetcher creates a fetcher. primary may be nil to use only the
// fallback.
func NewFetcher(primary, fallback Provider) *Fetcher {
	return &Fetcher{
		primary:  primary,
		fallback: fallback,
	}
}

// Fetch returns the thumbnail and which provider served it, or
// ErrThumbnailUnavailable when every provider failed. The caller treats
// that as a degraded entry, not an error.
func (f *Fetcher) Fetch(ctx context.Context, point spatial.Point) (*Thumbnail, error) {
	var errs []error

	if f.primary != nil {
		image, err := f.primary.Fetch(ctx, point)
		if err == nil {
			return &Thumbnail{Provider: f.primary.Name(), Image: image}, nil
		}

		// A missing credential is the expected path for keyless setups;
		// anything else is worth a log line.
		if !errors.Is(err, ErrNoCredential) {
			log.Printf("Primary thumbnail provider failed for %s: %v", point.String(), err)
		}

		errs = append(errs, err)
	}

	if f.fallback != nil {
		image, err := f.fallback.Fetch(ctx, point)
		if err == nil {
			return &Thumbnail{Provider: f.fallback.Name(), Image: image}, nil
		}

		log.Printf("Fallback thumbnail provider failed for %s: %v", point.String(), err)
		errs = append(errs, err)
	}

	return nil, errors.Join(ErrThumbnailUnavailable, errors.Join(errs...))
}
