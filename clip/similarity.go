// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package clip

import (
	"context"
	"fmt"
	"log"
	"math"
)

// Normalize returns the L2-normalized copy of v. A zero vector is returned
// unchanged.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}

	out := make([]float64, len(v))
	if sum == 0 {
		return out
	}

	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = x / norm
	}

	return out
}

// CosineSimilarity computes the cosine of the angle between a and b.
// Vectors of different lengths and zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Candidate is one thumbnail to score against the reference photo.
type Candidate struct {
	// ID of the record the thumbnail belongs to.
	ID string

	// Image bytes. Candidates without an image receive no score.
	Image []byte
}

// Rank embeds the reference photo and every candidate thumbnail and returns
// a similarity score per candidate ID. Candidates without an image are
// absent from the result. A model failure before the reference photo is
// embedded fails the whole call; a failure on a single candidate only skips
// that candidate.
func (h *Handle) Rank(ctx context.Context, reference []byte, candidates []Candidate) (map[string]float64, error) {
	refVec, err := h.EmbedImage(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("embedding reference photo: %w", err)
	}

	refVec = Normalize(refVec)

	scores := make(map[string]float64, len(candidates))
	for _, candidate := range candidates {
		if len(candidate.Image) == 0 {
			continue
		}

		vec, err := h.EmbedImage(ctx, candidate.Image)
		if err != nil {
			log.Printf("skipping similarity score for %s: %v", candidate.ID, err)
			continue
		}

		scores[candidate.ID] = CosineSimilarity(refVec, Normalize(vec))
	}

	return scores, nil
}
