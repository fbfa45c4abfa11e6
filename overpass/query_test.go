// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package overpass

import (
	"errors"
	"strings"
	"testing"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{
			name: "valid berlin request",
			req:  Request{PostalCode: "10115", HouseNumber: "5"},
		},
		{
			name: "valid four digit postal code",
			req:  Request{PostalCode: "1010", HouseNumber: "12"},
		},
		{
			name: "house number with letter",
			req:  Request{PostalCode: "10115", HouseNumber: "5a"},
		},
		{
			name: "house number range",
			req:  Request{PostalCode: "10115", HouseNumber: "5-7"},
		},
		{
			name:    "empty postal code",
			req:     Request{PostalCode: "", HouseNumber: "5"},
			wantErr: true,
		},
		{
			name:    "empty house number",
			req:     Request{PostalCode: "10115", HouseNumber: ""},
			wantErr: true,
		},
		{
			name:    "postal code with letters",
			req:     Request{PostalCode: "1011a", HouseNumber: "5"},
			wantErr: true,
		},
		{
			name:    "postal code too short",
			req:     Request{PostalCode: "101", HouseNumber: "5"},
			wantErr: true,
		},
		{
			name:    "postal code too long",
			req:     Request{PostalCode: "101150", HouseNumber: "5"},
			wantErr: true,
		},
		{
			name:    "house number with quote",
			req:     Request{PostalCode: "10115", HouseNumber: `5"`},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("Validate() returned %T, want *ValidationError", err)
				}
			}
		})
	}
}

func TestRequestNormalize(t *testing.T) {
	req := Request{PostalCode: " 10115 ", HouseNumber: " 5 "}
	req.Normalize()

	if req.PostalCode != "10115" || req.HouseNumber != "5" {
		t.Errorf("Normalize() = %+v, want trimmed fields", req)
	}
}

func TestBuildQuery(t *testing.T) {
	query := BuildQuery(Request{PostalCode: "10115", HouseNumber: "5"})

	for _, want := range []string{
		`[out:json][timeout:30];`,
		`node["addr:postcode"="10115"]["addr:housenumber"="5"];`,
		`way["addr:postcode"="10115"]["addr:housenumber"="5"];`,
		`relation["addr:postcode"="10115"]["addr:housenumber"="5"];`,
		`out center tags;`,
	} {
		if !strings.Contains(query, want) {
			t.Errorf("BuildQuery() missing %q in:\n%s", want, query)
		}
	}
}
