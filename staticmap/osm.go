// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package staticmap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/civiceye/civiceye/spatial"
)

const osmStaticMapURL = "https://staticmap.openstreetmap.de/staticmap.php"

// OSMProvider renders thumbnails with the OpenStreetMap static map service.
// It requires no credential and serves as the fallback provider.
type OSMProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewOSMProvider creates the keyless OSM provider.
func NewOSMProvider(userAgent string) *OSMProvider {
	return &OSMProvider{
		baseURL:   osmStaticMapURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Provider.
func (o *OSMProvider) Name() string {
	return "osm_staticmap"
}

// URL returns the static map URL for a point. Exposed so the UI can link the
// raw image even when the fetch failed.
func (o *OSMProvider) URL(point spatial.Point) string {
	return fmt.Sprintf(
		"%s?center=%f,%f&zoom=%d&size=%dx%d&markers=%f,%f,red-pushpin",
		o.baseURL,
		point.Lat, point.Lon,
		MapZoom,
		MapWidth, MapHeight,
		point.Lat, point.Lon,
	)
}

// Fetch implements Provider.
func (o *OSMProvider) Fetch(ctx context.Context, point spatial.Point) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.URL(point), nil)
	if err != nil {
		return nil, fmt.Errorf("building static map request: %w", err)
	}

	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("static map request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &providerError{
			provider: o.Name(),
			status:   resp.StatusCode,
			reason:   classifyStatus(resp.StatusCode),
		}
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading static map image: %w", err)
	}

	return image, nil
}
