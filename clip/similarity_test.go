// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package clip

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := Normalize([]float64{3, 4})
	assert.InDelta(t, 0.6, got[0], 1e-9)
	assert.InDelta(t, 0.8, got[1], 1e-9)

	zero := Normalize([]float64{0, 0, 0})
	assert.Equal(t, []float64{0, 0, 0}, zero)
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.want, CosineSimilarity(tc.a, tc.b), 1e-9)
		})
	}
}

func TestCosineSimilarityScaleInvariant(t *testing.T) {
	t.Parallel()

	a := []float64{0.2, -0.5, 0.7, 0.1}
	b := []float64{0.3, 0.4, -0.2, 0.9}

	base := CosineSimilarity(a, b)
	for _, scale := range []float64{0.001, 2, 1000} {
		scaled := make([]float64, len(a))
		for i, x := range a {
			scaled[i] = x * scale
		}

		assert.InDelta(t, base, CosineSimilarity(scaled, b), 1e-9)
	}

	assert.LessOrEqual(t, math.Abs(base), 1.0)
}

// fakeEmbedder returns canned vectors keyed by image content.
type fakeEmbedder struct {
	loadErr   error
	loadCalls int
	vectors   map[string][]float64
	embedErr  map[string]error
}

func (f *fakeEmbedder) Load(context.Context) error {
	f.loadCalls++
	return f.loadErr
}

func (f *fakeEmbedder) EmbedImage(_ context.Context, image []byte) ([]float64, error) {
	if err := f.embedErr[string(image)]; err != nil {
		return nil, err
	}

	vec, ok := f.vectors[string(image)]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", image)
	}

	return vec, nil
}

func TestRank(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{
		vectors: map[string][]float64{
			"photo": {1, 0},
			"a":     {0.9, 0.1},
			"b":     {0.5, 0.5},
		},
	}
	handle := NewHandle(embedder)

	scores, err := handle.Rank(context.Background(), []byte("photo"), []Candidate{
		{ID: "node/1", Image: []byte("a")},
		{ID: "node/2", Image: []byte("b")},
		{ID: "node/3"}, // no thumbnail
	})
	require.NoError(t, err)

	require.Len(t, scores, 2)
	assert.Greater(t, scores["node/1"], scores["node/2"])
	assert.Equal(t, 1, embedder.loadCalls)
}

func TestRankSkipsFailedCandidate(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{
		vectors: map[string][]float64{
			"photo": {1, 0},
			"a":     {1, 0},
		},
		embedErr: map[string]error{
			"broken": errors.New("corrupt image"),
		},
	}
	handle := NewHandle(embedder)

	scores, err := handle.Rank(context.Background(), []byte("photo"), []Candidate{
		{ID: "node/1", Image: []byte("a")},
		{ID: "node/2", Image: []byte("broken")},
	})
	require.NoError(t, err)

	assert.Len(t, scores, 1)
	assert.Contains(t, scores, "node/1")
}

// ctxEmbedder is healthy but honors the caller's context, like the HTTP
// client does.
type ctxEmbedder struct {
	loadCalls int
}

func (e *ctxEmbedder) Load(ctx context.Context) error {
	e.loadCalls++
	return ctx.Err()
}

func (e *ctxEmbedder) EmbedImage(ctx context.Context, _ []byte) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return []float64{1, 0}, nil
}

func TestHandleSurvivesCanceledFirstCall(t *testing.T) {
	t.Parallel()

	embedder := &ctxEmbedder{}
	handle := NewHandle(embedder)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	// The aborted call itself fails, but only for that caller.
	_, err := handle.EmbedImage(canceled, []byte("photo"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrModelUnavailable)

	// The model stays usable for everyone else.
	assert.True(t, handle.Available(context.Background()))

	vec, err := handle.EmbedImage(context.Background(), []byte("photo"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, vec)
	assert.Equal(t, 1, embedder.loadCalls)
}

func TestHandleLoadFailureSticks(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{loadErr: errors.New("connection refused")}
	handle := NewHandle(embedder)

	_, err := handle.Rank(context.Background(), []byte("photo"), nil)
	assert.ErrorIs(t, err, ErrModelUnavailable)

	// Later calls fail fast without retrying the load.
	_, err = handle.EmbedImage(context.Background(), []byte("photo"))
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.False(t, handle.Available(context.Background()))
	assert.Equal(t, 1, embedder.loadCalls)
}
