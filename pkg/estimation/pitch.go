package estimation

// Standard roofing slope-area factors: the ratio of actual roof surface to
// flat projected area for a given rise per 12" of run.
var pitchMultipliers = map[int]float64{
	0:  1.000,
	1:  1.003,
	2:  1.014,
	3:  1.031,
	4:  1.054,
	5:  1.083,
	6:  1.118,
	7:  1.158,
	8:  1.202,
	9:  1.250,
	10: 1.302,
	11: 1.357,
	12: 1.414,
	13: 1.474,
	14: 1.537,
	15: 1.601,
	16: 1.667,
	17: 1.734,
	18: 1.803,
}

// PitchMultiplier returns the slope-area factor for a rise-per-12 pitch.
// Fractional pitches round to the nearest whole rise; anything above the
// table clamps to the steepest entry.
func PitchMultiplier(pitch float64) float64 {
	if pitch < 0 {
		pitch = 0
	}
	rise := int(pitch + 0.5)
	if rise > 18 {
		rise = 18
	}
	return pitchMultipliers[rise]
}

// PitchCategory buckets a pitch into the vocabulary the product uses for
// labor pricing and crew safety planning.
func PitchCategory(pitch float64) string {
	rise := int(pitch + 0.5)
	switch {
	case rise <= 0:
		return "flat"
	case rise <= 3:
		return "low"
	case rise <= 6:
		return "standard"
	case rise <= 9:
		return "steep"
	default:
		return "very_steep"
	}
}
