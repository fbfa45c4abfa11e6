// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package staticmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"

	"github.com/civiceye/civiceye/keystore"
	"github.com/civiceye/civiceye/spatial"
)

const googleStaticMapURL = "https://maps.googleapis.com/maps/api/staticmap"

// GoogleProvider renders thumbnails with the Google Static Maps API. It
// requires an API key.
type GoogleProvider struct {
	apiKey     string
	httpClient *http.Client
}

// NewGoogleProvider creates a Google Static Maps provider with the given
// key. An empty key yields ErrNoCredential on every Fetch, which pushes the
// fetcher to the fallback provider.
func NewGoogleProvider(apiKey string) *GoogleProvider {
	return &GoogleProvider{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Provider.
func (g *GoogleProvider) Name() string {
	return "google_static_maps"
}

// Fetch implements Provider.
func (g *GoogleProvider) Fetch(ctx context.Context, point spatial.Point) ([]byte, error) {
	if g.apiKey == "" {
		return nil, ErrNoCredential
	}

	params := url.Values{}
	params.Set("center", fmt.Sprintf("%f,%f", point.Lat, point.Lon))
	params.Set("zoom", fmt.Sprintf("%d", MapZoom))
	params.Set("size", fmt.Sprintf("%dx%d", MapWidth, MapHeight))
	params.Set("markers", fmt.Sprintf("color:red|%f,%f", point.Lat, point.Lon))
	params.Set("key", g.apiKey)

	reqURL := googleStaticMapURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building static map request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("static map request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &providerError{
			provider: g.Name(),
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

// ResolveGoogleKey resolves the Google Static Maps API key: explicit value,
// then the key store, then the environment, then Application Default
// Credentials. Returns "" when no key can be found; the provider then
// degrades to the fallback.
func ResolveGoogleKey(ctx context.Context, explicit string, store keystore.Store) string {
	if explicit != "" {
		return explicit
	}

	if store != nil {
		key, err := store.Read()
		if err != nil {
			log.Printf("Reading stored API key: %v", err)
		} else if key != "" {
			return key
		}
	}

	if key := os.Getenv("GOOGLE_MAPS_API_KEY"); key != "" {
		return key
	}

	log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

	key, err := getAPIKeyFromADC(ctx)
	if err != nil {
		log.Printf("Failed to retrieve API key via ADC: %v", err)
		log.Print("No Google Maps key available - thumbnails will use the fallback provider.")

		return ""
	}

	log.Println("✅ Successfully retrieved Google Maps API Key via ADC")

	return key
}

func getAPIKeyFromADC(ctx context.Context) (string, error) {
	// 1. Get Project ID from ADC
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		return "", errors.New("no project ID found in default credentials")
	}

	// 2. Create API Keys client
	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	// 3. List keys to find the one with the expected display name
	const targetDisplayName = "CivicEye Static Maps Key"

	req := &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	}

	it := client.ListKeys(ctx, req)

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName == targetDisplayName {
			// ListKeys and GetKey redact the KeyString.
			// We must use GetKeyString method to retrieve the secret.
			log.Printf("Found key resource '%s', retrieving secret...", key.Name)

			getReq := &apikeyspb.GetKeyStringRequest{
				Name: key.Name,
			}

			resp, err := client.GetKeyString(ctx, getReq)
			if err != nil {
				return "", fmt.Errorf("getting key string: %w", err)
			}

			if resp.KeyString == "" {
				return "", fmt.Errorf("key '%s' found but KeyString is still empty after GetKeyString", targetDisplayName)
			}

			return resp.KeyString, nil
		}
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", targetDisplayName, projectID)
}
