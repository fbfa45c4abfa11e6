// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package overpass

import (
	"fmt"

	"github.com/civiceye/civiceye/spatial"
)

// AddressRecord is one OSM object matching the lookup. Immutable once
// created.
type AddressRecord struct {
	// ID is the OSM identifier in "type/id" form, e.g. "node/2398764531".
	ID string `json:"id"`

	Point spatial.Point `json:"point"`

	Street string `json:"street"`
	City   string `json:"city,omitempty"`

	// DisplayName is a human readable label. Synthesized from the request
	// fields when the source object carries no street tag.
	DisplayName string `json:"display_name"`

	// Tags carries the raw OSM tags of the source object.
	Tags map[string]string `json:"tags,omitempty"`
}

// Wire format of the Overpass interpreter response.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

// coordinates resolves the element position: nodes carry lat/lon directly,
// ways and relations report a center.
func (e *overpassElement) coordinates() (spatial.Point, bool) {
	if e.Lat != nil && e.Lon != nil {
		return spatial.Point{Lat: *e.Lat, Lon: *e.Lon}, true
	}

	if e.Center != nil {
		return spatial.Point{Lat: e.Center.Lat, Lon: e.Center.Lon}, true
	}

	return spatial.Point{}, false
}

// parseRecords converts Overpass elements into address records. Elements
// without usable coordinates are skipped; partially tagged objects get a
// synthesized display name.
func parseRecords(resp *overpassResponse, req Request) []AddressRecord {
	records := make([]AddressRecord, 0, len(resp.Elements))

	for _, element := range resp.Elements {
		point, ok := element.coordinates()
		if !ok {
			continue
		}

		record := AddressRecord{
			ID:     fmt.Sprintf("%s/%d", element.Type, element.ID),
			Point:  point,
			Street: element.Tags["addr:street"],
			City:   element.Tags["addr:city"],
			Tags:   element.Tags,
		}
		record.DisplayName = displayName(record, req)

		records = append(records, record)
	}

	return records
}

// displayName builds "Street 5, City" and falls back to the request fields
// when the object has no street tag.
func displayName(r AddressRecord, req Request) string {
	street := r.Street
	if street == "" {
		return fmt.Sprintf("Hausnummer %s, %s", req.HouseNumber, req.PostalCode)
	}

	name := fmt.Sprintf("%s %s", street, req.HouseNumber)
	if r.City != "" {
		name += ", " + r.City
	}

	return name
}
