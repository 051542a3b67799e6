package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ParseTerritoryBoundary decodes a GeoJSON Polygon/MultiPolygon territory
// boundary as stored in service_territories.boundary.
func ParseTerritoryBoundary(raw []byte) (orb.Geometry, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty territory boundary")
	}
	geom, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid territory boundary: %w", err)
	}
	switch g := geom.Geometry().(type) {
	case orb.Polygon, orb.MultiPolygon:
		return g, nil
	default:
		return nil, fmt.Errorf("territory boundary must be a Polygon or MultiPolygon, got %s", geom.Type)
	}
}

// PointInTerritory reports whether a lat/lng falls inside the boundary.
func PointInTerritory(boundary orb.Geometry, lat, lng float64) bool {
	point := orb.Point{lng, lat}
	switch g := boundary.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, point)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, point)
	default:
		return false
	}
}

// ValidateCoordinate rejects out-of-range coordinates before any territory
// check runs. Zero/zero is treated as "no geocode available", not an error.
func ValidateCoordinate(lat, lng float64) error {
	if lat == 0 && lng == 0 {
		return nil
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %.6f out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %.6f out of range [-180, 180]", lng)
	}
	return nil
}

// NamedBoundary pairs a territory name with its stored boundary JSON.
type NamedBoundary struct {
	Name     string
	Boundary json.RawMessage
}

// TerritoryFromCoordinates is a convenience for intake: given the stored
// boundary JSON of each active territory, return the name of the first one
// containing the point, or "" when none match. Boundaries are checked in
// slice order, so overlapping territories resolve the same way every time.
func TerritoryFromCoordinates(boundaries []NamedBoundary, lat, lng float64) string {
	for _, b := range boundaries {
		geom, err := ParseTerritoryBoundary(b.Boundary)
		if err != nil {
			continue
		}
		if PointInTerritory(geom, lat, lng) {
			return b.Name
		}
	}
	return ""
}
