package utils

import (
	"encoding/json"
	"testing"
)

// a square roughly covering Denver
const denverSquare = `{
	"type": "Polygon",
	"coordinates": [[
		[-105.2, 39.6],
		[-104.7, 39.6],
		[-104.7, 39.9],
		[-105.2, 39.9],
		[-105.2, 39.6]
	]]
}`

func TestParseTerritoryBoundary(t *testing.T) {
	if _, err := ParseTerritoryBoundary([]byte(denverSquare)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseTerritoryBoundary(nil); err == nil {
		t.Error("expected error for empty boundary")
	}
	if _, err := ParseTerritoryBoundary([]byte(`{"type":"Point","coordinates":[0,0]}`)); err == nil {
		t.Error("expected error for non-polygon boundary")
	}
	if _, err := ParseTerritoryBoundary([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestPointInTerritory(t *testing.T) {
	boundary, err := ParseTerritoryBoundary([]byte(denverSquare))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		lat, lng float64
		expected bool
	}{
		{"downtown Denver", 39.74, -104.99, true},
		{"Colorado Springs", 38.83, -104.82, false},
		{"on far side of the world", -33.87, 151.21, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInTerritory(boundary, tt.lat, tt.lng); got != tt.expected {
				t.Errorf("PointInTerritory(%v, %v) = %v, expected %v", tt.lat, tt.lng, got, tt.expected)
			}
		})
	}
}

func TestValidateCoordinate(t *testing.T) {
	if err := ValidateCoordinate(39.74, -104.99); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateCoordinate(0, 0); err != nil {
		t.Errorf("zero/zero should mean ungeocoded, got %v", err)
	}
	if err := ValidateCoordinate(91, 0); err == nil {
		t.Error("expected error for latitude out of range")
	}
	if err := ValidateCoordinate(0, 181); err == nil {
		t.Error("expected error for longitude out of range")
	}
}

func TestTerritoryFromCoordinates(t *testing.T) {
	boundaries := []NamedBoundary{
		{Name: "Denver Metro", Boundary: json.RawMessage(denverSquare)},
	}
	if got := TerritoryFromCoordinates(boundaries, 39.74, -104.99); got != "Denver Metro" {
		t.Errorf("TerritoryFromCoordinates = %q, expected Denver Metro", got)
	}
	if got := TerritoryFromCoordinates(boundaries, 38.83, -104.82); got != "" {
		t.Errorf("TerritoryFromCoordinates outside = %q, expected empty", got)
	}
}

func TestTerritoryFromCoordinatesOverlap(t *testing.T) {
	overlapping := []NamedBoundary{
		{Name: "Denver Metro", Boundary: json.RawMessage(denverSquare)},
		{Name: "Front Range", Boundary: json.RawMessage(denverSquare)},
	}
	// Overlapping territories resolve to the first match in slice order,
	// not whichever one a map happened to yield.
	for i := 0; i < 20; i++ {
		if got := TerritoryFromCoordinates(overlapping, 39.74, -104.99); got != "Denver Metro" {
			t.Fatalf("TerritoryFromCoordinates overlap = %q, expected Denver Metro", got)
		}
	}
}
