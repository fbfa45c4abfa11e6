// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

// Package overpass looks up postal-code + house-number pairs against the
// Overpass API and parses the matching OSM objects into address records.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/civiceye/civiceye/utils/httputils"
)

// DefaultBaseURL is the public Overpass interpreter endpoint.
const DefaultBaseURL = "https://overpass-api.de/api/interpreter"

// ClientOptions configuration for the Overpass client.
type ClientOptions struct {
	// BaseURL of the Overpass interpreter. Defaults to DefaultBaseURL.
	BaseURL string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Timeout per lookup. Defaults to 30 seconds, matching the query's
	// server-side timeout.
	Timeout time.Duration

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool
}

// Client issues address lookups. Results for identical requests may be
// served from an optional memoization cache.
type Client struct {
	client  *http.Client
	baseURL string
	cache   LookupCache
}

// NewClient creates an Overpass client. cache may be nil to disable
// memoization.
func NewClient(options *ClientOptions, cache LookupCache) *Client {
	if options == nil {
		options = &ClientOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableKeepAlives:     false,
		DisableCompression:    false,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := "civiceye/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		Transport: loggingTransport,
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		client: &http.Client{
			Timeout:   timeout,
			Transport: headerTransport,
		},
		baseURL: baseURL,
		cache:   cache,
	}
}

// Lookup returns all OSM objects matching the request. A service that
// responds with zero matches yields an empty slice, not an error.
func (c *Client) Lookup(ctx context.Context, req Request) ([]AddressRecord, error) {
	req.Normalize()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if c.cache != nil {
		records, ok, err := c.cache.Get(req)
		if err != nil {
			// A broken cache must not break the lookup.
			log.Printf("Lookup cache read failed: %v", err)
		} else if ok {
			return records, nil
		}
	}

	records, err := c.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(req, records); err != nil {
			log.Printf("Lookup cache write failed: %v", err)
		}
	}

	return records, nil
}

// InvalidateCache drops the memoized result for the request, if a cache is
// configured.
func (c *Client) InvalidateCache(req Request) error {
	if c.cache == nil {
		return nil
	}

	req.Normalize()

	return c.cache.Invalidate(req)
}

func (c *Client) fetch(ctx context.Context, req Request) ([]AddressRecord, error) {
	params := url.Values{}
	params.Set("data", BuildQuery(req))

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL,
		strings.NewReader(params.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("building overpass request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &ServiceError{
			Type:    classifyTransportError(err),
			Message: "overpass request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode)
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ServiceError{
			Type:    ErrorTypeUnknown,
			Message: "decoding overpass response",
			Err:     err,
		}
	}

	return parseRecords(&parsed, req), nil
}

// classifyTransportError distinguishes timeouts from other transport
// failures. Timeout is treated as equivalent to service failure.
func classifyTransportError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return ErrorTypeTimeout
	}

	return ErrorTypeNetworkError
}
