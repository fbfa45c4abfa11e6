// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

// Package clip scores candidate map thumbnails against a reference photo
// using image embeddings from a pretrained vision-language model served by a
// local inference service.
package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultModel is the model identifier loaded when none is configured.
const DefaultModel = "openai/clip-vit-base-patch32"

// Embedder produces a fixed-length embedding vector for an image.
type Embedder interface {
	// Load makes the model ready. Expensive; called once per process.
	Load(ctx context.Context) error

	// EmbedImage returns the embedding vector for the raw image bytes.
	EmbedImage(ctx context.Context, image []byte) ([]float64, error)
}

// ClientOptions configures the inference service client.
type ClientOptions struct {
	// BaseURL of the inference service, e.g. "http://localhost:8021".
	BaseURL string

	// Model identifier to load. Defaults to DefaultModel.
	Model string

	// Timeout per call. Model loading can take a while on first use.
	Timeout time.Duration
}

// Client talks to a CLIP inference service over HTTP.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates an inference service client.
func NewClient(options *ClientOptions) *Client {
	if options == nil {
		options = &ClientOptions{}
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8021"
	}

	model := options.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type loadRequest struct {
	Model string `json:"model"`
}

type loadResponse struct {
	Loaded bool   `json:"loaded"`
	Error  string `json:"error,omitempty"`
}

// Load implements Embedder. It asks the service to load the configured
// model, downloading it if no local preload is available.
func (c *Client) Load(ctx context.Context) error {
	var resp loadResponse
	if err := c.post(ctx, "/models/load", loadRequest{Model: c.model}, &resp); err != nil {
		return fmt.Errorf("loading model %q: %w", c.model, err)
	}

	if !resp.Loaded {
		return fmt.Errorf("loading model %q: %s", c.model, resp.Error)
	}

	return nil
}

type embedRequest struct {
	Model string `json:"model"`
	Image string `json:"image"` // base64
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedImage implements Embedder.
func (c *Client) EmbedImage(ctx context.Context, image []byte) ([]float64, error) {
	req := embedRequest{
		Model: c.model,
		Image: base64.StdEncoding.EncodeToString(image),
	}

	var resp embedResponse
	if err := c.post(ctx, "/embeddings/image", req, &resp); err != nil {
		return nil, fmt.Errorf("embedding image: %w", err)
	}

	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embedding image: service returned an empty vector")
	}

	return resp.Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
