package estimation

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestMergeResultsWeightedAverage(t *testing.T) {
	results := []PhotoMeasurementResult{
		{Success: true, Confidence: 0.9, EstimatedTotalSqFt: 2500},
		{Success: true, Confidence: 0.6, EstimatedTotalSqFt: 2000},
	}
	merged, err := MergeResults(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// (2500*0.9 + 2000*0.6) / (0.9+0.6) = 2300
	if math.Abs(merged.EstimatedTotalSqFt-2300) > 1e-9 {
		t.Errorf("merged sqft = %v, expected 2300", merged.EstimatedTotalSqFt)
	}
}

func TestMergeResultsZeroConfidenceFallback(t *testing.T) {
	results := []PhotoMeasurementResult{
		{Success: true, Confidence: 0, EstimatedTotalSqFt: 2000},
		{Success: true, Confidence: 0, EstimatedTotalSqFt: 3000},
	}
	merged, err := MergeResults(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.EstimatedTotalSqFt != 2500 {
		t.Errorf("merged sqft = %v, expected unweighted mean 2500", merged.EstimatedTotalSqFt)
	}
}

func TestMergeResultsConfidence(t *testing.T) {
	tests := []struct {
		name        string
		confidences []float64
		expected    float64
	}{
		{"boosted above weakest", []float64{0.8, 0.7, 0.85}, 0.77},
		{"capped at 1.0", []float64{0.95, 0.98}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []PhotoMeasurementResult
			for _, c := range tt.confidences {
				results = append(results, PhotoMeasurementResult{Success: true, Confidence: c})
			}
			merged, err := MergeResults(results)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(merged.Confidence-tt.expected) > 1e-9 {
				t.Errorf("merged confidence = %v, expected %v", merged.Confidence, tt.expected)
			}
		})
	}
}

func TestMergeResultsCategoricalVote(t *testing.T) {
	// asphalt sums to 1.5 vs metal's 0.9: asphalt wins even though metal has
	// the single highest individual confidence.
	results := []PhotoMeasurementResult{
		{Success: true, Confidence: 0.8, DetectedMaterial: "asphalt_shingle"},
		{Success: true, Confidence: 0.7, DetectedMaterial: "asphalt_shingle"},
		{Success: true, Confidence: 0.9, DetectedMaterial: "metal_standing_seam"},
	}
	merged, err := MergeResults(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.DetectedMaterial != "asphalt_shingle" {
		t.Errorf("merged material = %q, expected asphalt_shingle", merged.DetectedMaterial)
	}
}

func TestMergeResultsFeaturesKeepHighestConfidence(t *testing.T) {
	results := []PhotoMeasurementResult{
		{Success: true, Confidence: 0.8, DetectedFeatures: []DetectedFeature{
			{Type: "skylight", Count: 1, Confidence: 0.7},
		}},
		{Success: true, Confidence: 0.8, DetectedFeatures: []DetectedFeature{
			{Type: "skylight", Count: 2, Confidence: 0.9},
			{Type: "chimney", Count: 1, Confidence: 0.6},
		}},
	}
	merged, err := MergeResults(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []DetectedFeature{
		{Type: "skylight", Count: 2, Confidence: 0.9}, // not count 3
		{Type: "chimney", Count: 1, Confidence: 0.6},
	}
	if !reflect.DeepEqual(merged.DetectedFeatures, expected) {
		t.Errorf("merged features = %+v, expected %+v", merged.DetectedFeatures, expected)
	}
}

func TestMergeResultsPlanesUnionByID(t *testing.T) {
	results := []PhotoMeasurementResult{
		{Success: true, Confidence: 0.8, DetectedPlanes: []DetectedPlane{
			{PlaneID: "A", AreaSqFt: 800, Pitch: 6, PitchConfidence: 0.5},
			{PlaneID: "B", AreaSqFt: 600, Pitch: 6, PitchConfidence: 0.8},
		}},
		{Success: true, Confidence: 0.8, DetectedPlanes: []DetectedPlane{
			{PlaneID: "A", AreaSqFt: 820, Pitch: 7, PitchConfidence: 0.9},
			{PlaneID: "C", AreaSqFt: 400, Pitch: 5, PitchConfidence: 0.7},
		}},
	}
	merged, err := MergeResults(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged.DetectedPlanes) != 3 {
		t.Fatalf("expected 3 planes after union, got %d", len(merged.DetectedPlanes))
	}
	if merged.DetectedPlanes[0].PlaneID != "A" || merged.DetectedPlanes[0].PitchConfidence != 0.9 {
		t.Errorf("plane A = %+v, expected the 0.9-confidence observation", merged.DetectedPlanes[0])
	}
}

func TestMergeResultsPitchBucketing(t *testing.T) {
	results := []PhotoMeasurementResult{
		{Success: true, Confidence: 0.5, DetectedPitch: 6},
		{Success: true, Confidence: 0.5, DetectedPitch: 8},
	}
	merged, err := MergeResults(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.DetectedPitch != 7 {
		t.Errorf("merged pitch = %v, expected 7", merged.DetectedPitch)
	}
	if merged.PitchCategory != "steep" {
		t.Errorf("pitch category = %q, expected steep", merged.PitchCategory)
	}
}

func TestMergeResultsNotesDedup(t *testing.T) {
	results := []PhotoMeasurementResult{
		{Success: true, Confidence: 0.8, Notes: []string{"tree overhang on north slope", "moss visible"}},
		{Success: true, Confidence: 0.8, Notes: []string{"moss visible", "satellite dish present"}},
	}
	merged, err := MergeResults(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"tree overhang on north slope", "moss visible", "satellite dish present"}
	if !reflect.DeepEqual(merged.Notes, expected) {
		t.Errorf("merged notes = %v, expected %v", merged.Notes, expected)
	}
}

func TestMergeResultsNoUsableInput(t *testing.T) {
	for _, results := range [][]PhotoMeasurementResult{
		nil,
		{},
		{{Success: false, Confidence: 0.9}},
	} {
		_, err := MergeResults(results)
		if err == nil {
			t.Fatal("expected error for no usable results")
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("error = %T, expected *ValidationError", err)
		}
	}
}

func TestMergeResultsSuggestedVariables(t *testing.T) {
	results := []PhotoMeasurementResult{
		{
			Success: true, Confidence: 0.9,
			EstimatedTotalSqFt: 2400, FootprintLengthFt: 50, FootprintWidthFt: 30,
			DetectedFeatures: []DetectedFeature{
				{Type: "skylight", Count: 2, Confidence: 0.8},
				{Type: "pipe_boot", Count: 4, Confidence: 0.7},
			},
		},
	}
	merged, err := MergeResults(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := merged.SuggestedVariables
	if v == nil {
		t.Fatal("expected suggested variables")
	}
	if v.SF != 2400 || v.SQ != 24 {
		t.Errorf("suggested SF/SQ = %v/%v, expected 2400/24", v.SF, v.SQ)
	}
	if v.P != 160 {
		t.Errorf("suggested perimeter = %v, expected 160", v.P)
	}
	if v.SkylightCount != 2 || v.PipeCount != 4 {
		t.Errorf("suggested counts = %v/%v, expected 2/4", v.SkylightCount, v.PipeCount)
	}
}
