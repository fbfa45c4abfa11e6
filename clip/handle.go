// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package clip

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrModelUnavailable is reported after the model failed to load. The
// failure sticks for the lifetime of the handle, later calls fail fast
// without retrying the load.
var ErrModelUnavailable = errors.New("similarity model unavailable")

// Handle owns the lifecycle of a loaded model. The model is loaded lazily
// on first use, exactly once. A load failure permanently disables the
// handle so a missing inference service degrades a whole run to unranked
// results instead of retrying on every record.
type Handle struct {
	embedder Embedder

	loadOnce sync.Once
	loadErr  error
}

// NewHandle wraps an embedder in a lazily-loading handle.
func NewHandle(embedder Embedder) *Handle {
	return &Handle{embedder: embedder}
}

func (h *Handle) ensureLoaded(ctx context.Context) error {
	h.loadOnce.Do(func() {
		// The load outcome outlives the first caller, so it must not
		// depend on that caller's cancelation. The embedder carries its
		// own timeout.
		if err := h.embedder.Load(context.WithoutCancel(ctx)); err != nil {
			log.Printf("similarity model load failed, continuing without ranking: %v", err)
			h.loadErr = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
	})

	return h.loadErr
}

// Available reports whether the model loaded, triggering the load if it
// has not been attempted yet.
func (h *Handle) Available(ctx context.Context) bool {
	return h.ensureLoaded(ctx) == nil
}

// EmbedImage embeds an image through the loaded model.
func (h *Handle) EmbedImage(ctx context.Context, image []byte) ([]float64, error) {
	if err := h.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	return h.embedder.EmbedImage(ctx, image)
}
