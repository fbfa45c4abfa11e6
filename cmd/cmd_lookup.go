// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver

	"github.com/civiceye/civiceye/clip"
	"github.com/civiceye/civiceye/keystore"
	"github.com/civiceye/civiceye/lookup"
	"github.com/civiceye/civiceye/overpass"
	"github.com/civiceye/civiceye/staticmap"
)

const cacheDBFile = "civiceye.duckdb"

type globalOptions struct {
	DataPath  string
	UseCache  bool
	GoogleKey string
	ClipURL   string
	ClipModel string

	EnableHTTPTrace     bool
	EnableHTTPBodyTrace bool
}

var options = &globalOptions{}

func userAgent() string {
	return fmt.Sprintf("civiceye/%s (+https://github.com/civiceye/civiceye)", Version)
}

// openCacheDB opens the persistent lookup cache and ensures its schema.
func openCacheDB() (*sql.DB, *overpass.DuckDBCache, error) {
	if err := os.MkdirAll(options.DataPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(options.DataPath, cacheDBFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache database: %w", err)
	}

	cache := overpass.NewDuckDBCache(db)
	if err := cache.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return db, cache, nil
}

// buildPipeline wires the full search pipeline from the global options. The
// returned close function releases the cache database, if any.
func buildPipeline(ctx context.Context) (*lookup.Pipeline, func() error, error) {
	var cache overpass.LookupCache

	closeFn := func() error { return nil }

	if options.UseCache {
		db, duckCache, err := openCacheDB()
		if err != nil {
			return nil, nil, err
		}

		cache = duckCache
		closeFn = db.Close
	} else {
		cache = overpass.NewMemoryCache()
	}

	addresses := overpass.NewClient(&overpass.ClientOptions{
		UserAgent:           userAgent(),
		EnableHTTPTrace:     options.EnableHTTPTrace,
		EnableHTTPBodyTrace: options.EnableHTTPBodyTrace,
	}, cache)

	key := staticmap.ResolveGoogleKey(ctx, options.GoogleKey, keystore.NewFileStore(options.DataPath))
	fetcher := staticmap.NewFetcher(
		staticmap.NewGoogleProvider(key),
		staticmap.NewOSMProvider(userAgent()),
	)

	ranker := clip.NewHandle(clip.NewClient(&clip.ClientOptions{
		BaseURL: options.ClipURL,
		Model:   options.ClipModel,
	}))

	return lookup.NewPipeline(addresses, fetcher, ranker), closeFn, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&options.DataPath,
		"data",
		"data",
		"Base directory for the API key and the lookup cache",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.UseCache,
		"cache",
		false,
		"Persist lookup results in a local DuckDB database",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.GoogleKey,
		"google-maps-key",
		"",
		"Google Static Maps API key. Falls back to the keystore, GOOGLE_MAPS_API_KEY and ADC",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.ClipURL,
		"clip-url",
		"",
		"Base URL of the image embedding service",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.ClipModel,
		"clip-model",
		clip.DefaultModel,
		"Model identifier for similarity ranking",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
