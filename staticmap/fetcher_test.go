// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package staticmap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiceye/civiceye/spatial"
)

// fakeProvider scripts provider behaviour for fetcher tests.
type fakeProvider struct {
	name  string
	image []byte
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(_ context.Context, _ spatial.Point) ([]byte, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return f.image, nil
}

var testPoint = spatial.Point{Lat: 52.5, Lon: 13.4}

func TestFetcherUsesPrimary(t *testing.T) {
	primary := &fakeProvider{name: "primary", image: []byte("png-primary")}
	fallback := &fakeProvider{name: "fallback", image: []byte("png-fallback")}

	thumb, err := NewFetcher(primary, fallback).Fetch(context.Background(), testPoint)
	require.NoError(t, err)

	assert.Equal(t, "primary", thumb.Provider)
	assert.Equal(t, []byte("png-primary"), thumb.Image)
	assert.Zero(t, fallback.calls, "fallback must not be contacted when primary succeeds")
}

func TestFetcherFallsBack(t *testing.T) {
	tests := []struct {
		name       string
		primaryErr error
	}{
		{name: "missing credential", primaryErr: ErrNoCredential},
		{name: "quota error", primaryErr: &providerError{provider: "primary", status: 403, reason: "quota exceeded or access denied"}},
		{name: "network failure", primaryErr: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeProvider{name: "primary", err: tt.primaryErr}
			fallback := &fakeProvider{name: "fallback", image: []byte("png-fallback")}

			thumb, err := NewFetcher(primary, fallback).Fetch(context.Background(), testPoint)
			require.NoError(t, err)

			assert.Equal(t, 1, primary.calls, "primary must be attempted first")
			assert.Equal(t, "fallback", thumb.Provider)
			assert.Equal(t, []byte("png-fallback"), thumb.Image)
		})
	}
}

func TestFetcherBothFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: ErrNoCredential}
	fallback := &fakeProvider{name: "fallback", err: errors.New("503")}

	thumb, err := NewFetcher(primary, fallback).Fetch(context.Background(), testPoint)

	assert.Nil(t, thumb)
	assert.ErrorIs(t, err, ErrThumbnailUnavailable)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFetcherWithoutPrimary(t *testing.T) {
	fallback := &fakeProvider{name: "fallback", image: []byte("png")}

	thumb, err := NewFetcher(nil, fallback).Fetch(context.Background(), testPoint)
	require.NoError(t, err)
	assert.Equal(t, "fallback", thumb.Provider)
}

func TestGoogleProviderWithoutKey(t *testing.T) {
	provider := NewGoogleProvider("")

	_, err := provider.Fetch(context.Background(), testPoint)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestOSMProviderURL(t *testing.T) {
	provider := NewOSMProvider("CivicEye/test")

	url := provider.URL(testPoint)
	assert.Contains(t, url, "center=52.500000,13.400000")
	assert.Contains(t, url, "zoom=17")
	assert.Contains(t, url, "size=400x400")
	assert.Contains(t, url, "markers=52.500000,13.400000,red-pushpin")
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{429, "rate limit reached"},
		{403, "quota exceeded or access denied"},
		{400, "invalid request"},
		{404, "not found"},
		{503, "service unavailable"},
		{500, "unexpected response"},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
