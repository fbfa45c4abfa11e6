// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package overpass

import (
	"fmt"
	"regexp"
	"strings"
)

// Request describes one postal-code + house-number lookup.
type Request struct {
	PostalCode  string `json:"postal_code"`
	HouseNumber string `json:"house_number"`
}

// Postal codes are validated loosely: 4 or 5 digits covers DE and the
// neighbouring countries without parsing the format structurally.
var postalCodeRe = regexp.MustCompile(`^[0-9]{4,5}$`)

// House numbers as tagged in OSM: digits plus an optional letter or
// range/fraction suffix ("5", "5a", "5-7", "5/1").
var houseNumberRe = regexp.MustCompile(`^[0-9]+[a-zA-Z]?([/-][0-9]+[a-zA-Z]?)?$`)

// Normalize trims the request fields in place.
func (r *Request) Normalize() {
	r.PostalCode = strings.TrimSpace(r.PostalCode)
	r.HouseNumber = strings.TrimSpace(r.HouseNumber)
}

// Validate checks the request before any network call.
func (r *Request) Validate() error {
	if r.PostalCode == "" {
		return &ValidationError{Field: "postal_code", Message: "must not be empty"}
	}

	if r.HouseNumber == "" {
		return &ValidationError{Field: "house_number", Message: "must not be empty"}
	}

	if !postalCodeRe.MatchString(r.PostalCode) {
		return &ValidationError{Field: "postal_code", Message: "must be 4 or 5 digits"}
	}

	if !houseNumberRe.MatchString(r.HouseNumber) {
		return &ValidationError{Field: "house_number", Message: "unrecognized house number format"}
	}

	return nil
}

// Key returns the memoization key for the request.
func (r Request) Key() string {
	return r.PostalCode + "|" + r.HouseNumber
}

// BuildQuery renders the Overpass QL query matching housenumber and postcode
// across nodes, ways and relations. "out center" makes ways and relations
// report a representative coordinate.
func BuildQuery(r Request) string {
	return fmt.Sprintf(`
	[out:json][timeout:30];
	(
	  node["addr:postcode"=%[1]q]["addr:housenumber"=%[2]q];
	  way["addr:postcode"=%[1]q]["addr:housenumber"=%[2]q];
	  relation["addr:postcode"=%[1]q]["addr:housenumber"=%[2]q];
	);
	out center tags;
	`, r.PostalCode, r.HouseNumber)
}
