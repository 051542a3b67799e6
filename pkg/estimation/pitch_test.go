package estimation

import "testing"

func TestPitchMultiplier(t *testing.T) {
	tests := []struct {
		pitch    float64
		expected float64
	}{
		{0, 1.0},
		{2, 1.014},
		{3, 1.031},
		{5, 1.083},
		{6, 1.118},
		{8, 1.202},
		{9, 1.250},
		{12, 1.414},
	}

	for _, tt := range tests {
		if got := PitchMultiplier(tt.pitch); got != tt.expected {
			t.Errorf("PitchMultiplier(%v) = %v, expected %v", tt.pitch, got, tt.expected)
		}
	}

	// Fractional pitches round to the nearest rise.
	if got := PitchMultiplier(5.6); got != 1.118 {
		t.Errorf("PitchMultiplier(5.6) = %v, expected 6/12 factor 1.118", got)
	}
	// Beyond the table clamps to the steepest entry.
	if got := PitchMultiplier(24); got != 1.803 {
		t.Errorf("PitchMultiplier(24) = %v, expected clamp 1.803", got)
	}
	if got := PitchMultiplier(-3); got != 1.0 {
		t.Errorf("PitchMultiplier(-3) = %v, expected 1.0", got)
	}
}

func TestPitchCategory(t *testing.T) {
	tests := []struct {
		pitch    float64
		expected string
	}{
		{0, "flat"},
		{1, "low"},
		{3, "low"},
		{4, "standard"},
		{6, "standard"},
		{7, "steep"},
		{9, "steep"},
		{10, "very_steep"},
		{14, "very_steep"},
	}

	for _, tt := range tests {
		if got := PitchCategory(tt.pitch); got != tt.expected {
			t.Errorf("PitchCategory(%v) = %q, expected %q", tt.pitch, got, tt.expected)
		}
	}
}
