// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

// Package staticmap retrieves rendered map thumbnails for coordinates from
// interchangeable providers, falling back to a keyless provider when the
// primary one is unavailable.
package staticmap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/civiceye/civiceye/spatial"
)

// Rendering parameters shared by all providers, matching the thumbnails the
// UI lays out in a grid.
const (
	MapZoom   = 17
	MapWidth  = 400
	MapHeight = 400
)

// ErrThumbnailUnavailable is returned when every provider failed for a
// record. It is a per-record, recoverable condition: the entry is shown
// without an image.
var ErrThumbnailUnavailable = errors.New("map thumbnail unavailable")

// ErrNoCredential is returned by providers that require an API key when none
// was configured.
var ErrNoCredential = errors.New("no API credential configured")

// Provider renders a static map image centered on a point.
type Provider interface {
	// Name identifies the provider in results and logs.
	Name() string

	// Fetch returns the rendered raster image bytes.
	Fetch(ctx context.Context, point spatial.Point) ([]byte, error)
}

// Thumbnail is a fetched map image together with the provider that served
// it.
type Thumbnail struct {
	Provider string `json:"provider"`
	Image    []byte `json:"-"`
}

// providerError wraps a provider HTTP failure with a coarse classification
// for logs.
type providerError struct {
	provider string
	status   int
	reason   string
}

func (e *providerError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.provider, e.reason, e.status)
}

// classifyStatus names the failure class of an HTTP status code.
func classifyStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "rate limit reached"
	case http.StatusForbidden, http.StatusPaymentRequired:
		return "quota exceeded or access denied"
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusNotFound:
		return "not found"
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return "service unavailable"
	default:
		return "unexpected response"
	}
}
