// Copyright 2026 The CivicEye Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"database/sql/driver"
	"fmt"
	"math"
)

const earthRadius = 6371e3 // meters

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lon, p.Lat)
}

// Value implements the driver.Valuer interface for database serialization.
// The spacing matches what DuckDB reports back, so Scan round-trips.
func (p Point) Value() (driver.Value, error) {
	return fmt.Sprintf("POINT (%f %f)", p.Lon, p.Lat), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		p.Lat, p.Lon = 0, 0

		return nil
	}

	switch v := value.(type) {
	case []byte:
		// The format from DuckDB is "POINT (lon lat)"
		_, err := fmt.Sscanf(string(v), "POINT (%f %f)", &p.Lon, &p.Lat)

		return err
	case string:
		_, err := fmt.Sscanf(v, "POINT (%f %f)", &p.Lon, &p.Lat)

		return err
	case map[string]interface{}:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		p.Lon = x
		p.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLon := (other.Lon - p.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
