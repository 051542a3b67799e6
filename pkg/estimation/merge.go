package estimation

// DetectedPlane is one roof facet reported by the photo analyzer.
type DetectedPlane struct {
	PlaneID         string  `json:"plane_id"`
	AreaSqFt        float64 `json:"area_sqft"`
	Pitch           float64 `json:"pitch"`
	PitchConfidence float64 `json:"pitch_confidence"`
}

// DetectedFeature is a counted roof feature (skylight, chimney, pipe_boot,
// vent) reported by the photo analyzer.
type DetectedFeature struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
}

// PhotoMeasurementResult is one AI analysis of one photo. Results are
// ephemeral: produced per photo, merged immediately, and only the merged
// result is persisted.
type PhotoMeasurementResult struct {
	Success               bool              `json:"success"`
	Confidence            float64           `json:"confidence"`
	EstimatedTotalSqFt    float64           `json:"estimated_total_sqft"`
	EstimatedTotalSquares float64           `json:"estimated_total_squares"`
	FootprintLengthFt     float64           `json:"footprint_length_ft"`
	FootprintWidthFt      float64           `json:"footprint_width_ft"`
	DetectedMaterial      string            `json:"detected_material"`
	DetectedPitch         float64           `json:"detected_pitch"`
	PitchCategory         string            `json:"pitch_category"`
	RoofStyle             string            `json:"roof_style"`
	DetectedPlanes        []DetectedPlane   `json:"detected_planes,omitempty"`
	DetectedFeatures      []DetectedFeature `json:"detected_features,omitempty"`
	SuggestedVariables    *RoofVariables    `json:"suggested_variables,omitempty"`
	Notes                 []string          `json:"notes,omitempty"`
}

// weightedAverage computes sum(v*c)/sum(c), falling back to the arithmetic
// mean when every confidence is 0.
func weightedAverage(values, confidences []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var num, den float64
	for i, v := range values {
		num += v * confidences[i]
		den += confidences[i]
	}
	if den == 0 {
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
	return num / den
}

// voteByConfidence picks the value whose summed confidence across results is
// highest. Ties break toward first-seen order.
func voteByConfidence(values []string, confidences []float64) string {
	sums := make(map[string]float64)
	var order []string
	for i, v := range values {
		if v == "" {
			continue
		}
		if _, seen := sums[v]; !seen {
			order = append(order, v)
		}
		sums[v] += confidences[i]
	}
	best := ""
	bestSum := -1.0
	for _, v := range order {
		if sums[v] > bestSum {
			best = v
			bestSum = sums[v]
		}
	}
	return best
}

// MergeResults consolidates the per-photo analyses into one measurement set.
// The caller filters out failed analyses first; an empty (or all-failed)
// input is a validation error, not a zero result.
//
// Merge policy:
//   - numeric totals: confidence-weighted average
//   - categorical fields: summed-confidence vote, first-seen tiebreak
//   - pitch: weighted average, then bucketed into the standard categories
//   - features: per type, the single highest-confidence detection wins
//     (counts are not summed across photos)
//   - planes: union by plane id, higher pitch confidence wins
//   - notes: order-preserving dedup
//   - confidence: min across results × 1.1, capped at 1.0
func MergeResults(results []PhotoMeasurementResult) (PhotoMeasurementResult, error) {
	usable := make([]PhotoMeasurementResult, 0, len(results))
	for _, r := range results {
		if r.Success {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 {
		return PhotoMeasurementResult{}, &ValidationError{Field: "results", Message: "no usable photo measurements"}
	}

	n := len(usable)
	confs := make([]float64, n)
	sqft := make([]float64, n)
	squares := make([]float64, n)
	lengths := make([]float64, n)
	widths := make([]float64, n)
	pitches := make([]float64, n)
	materials := make([]string, n)
	styles := make([]string, n)
	for i, r := range usable {
		confs[i] = r.Confidence
		sqft[i] = r.EstimatedTotalSqFt
		squares[i] = r.EstimatedTotalSquares
		lengths[i] = r.FootprintLengthFt
		widths[i] = r.FootprintWidthFt
		pitches[i] = r.DetectedPitch
		materials[i] = r.DetectedMaterial
		styles[i] = r.RoofStyle
	}

	merged := PhotoMeasurementResult{
		Success:               true,
		EstimatedTotalSqFt:    weightedAverage(sqft, confs),
		EstimatedTotalSquares: weightedAverage(squares, confs),
		FootprintLengthFt:     weightedAverage(lengths, confs),
		FootprintWidthFt:      weightedAverage(widths, confs),
		DetectedMaterial:      voteByConfidence(materials, confs),
		RoofStyle:             voteByConfidence(styles, confs),
	}

	merged.DetectedPitch = weightedAverage(pitches, confs)
	merged.PitchCategory = PitchCategory(merged.DetectedPitch)

	// Features: keep the single detection each photo was most confident
	// about, per type. Counts are intentionally not aggregated across
	// photos; two photos of the same skylight must not report two.
	bestFeature := make(map[string]DetectedFeature)
	var featureOrder []string
	for _, r := range usable {
		for _, f := range r.DetectedFeatures {
			cur, seen := bestFeature[f.Type]
			if !seen {
				featureOrder = append(featureOrder, f.Type)
			}
			if !seen || f.Confidence > cur.Confidence {
				bestFeature[f.Type] = f
			}
		}
	}
	for _, ft := range featureOrder {
		merged.DetectedFeatures = append(merged.DetectedFeatures, bestFeature[ft])
	}

	// Planes: union by id, keep the observation with the more confident
	// pitch reading.
	bestPlane := make(map[string]DetectedPlane)
	var planeOrder []string
	for _, r := range usable {
		for _, p := range r.DetectedPlanes {
			cur, seen := bestPlane[p.PlaneID]
			if !seen {
				planeOrder = append(planeOrder, p.PlaneID)
			}
			if !seen || p.PitchConfidence > cur.PitchConfidence {
				bestPlane[p.PlaneID] = p
			}
		}
	}
	for _, id := range planeOrder {
		merged.DetectedPlanes = append(merged.DetectedPlanes, bestPlane[id])
	}

	seenNote := make(map[string]bool)
	for _, r := range usable {
		for _, note := range r.Notes {
			if note == "" || seenNote[note] {
				continue
			}
			seenNote[note] = true
			merged.Notes = append(merged.Notes, note)
		}
	}

	// Agreement across photos modestly raises confidence, bounded by the
	// weakest single observation.
	minConf := confs[0]
	for _, c := range confs[1:] {
		if c < minConf {
			minConf = c
		}
	}
	merged.Confidence = minConf * 1.1
	if merged.Confidence > 1.0 {
		merged.Confidence = 1.0
	}

	merged.SuggestedVariables = suggestVariables(merged)
	return merged, nil
}

// suggestVariables derives a starter RoofVariables vector from the merged
// measurement. An estimator reviews and adjusts before pricing.
func suggestVariables(m PhotoMeasurementResult) *RoofVariables {
	v := &RoofVariables{
		SF: m.EstimatedTotalSqFt,
		SQ: m.EstimatedTotalSquares,
	}
	if v.SQ == 0 && v.SF > 0 {
		v.SQ = v.SF / 100
	}
	if m.FootprintLengthFt > 0 && m.FootprintWidthFt > 0 {
		v.P = 2 * (m.FootprintLengthFt + m.FootprintWidthFt)
		v.Eave = 2 * m.FootprintLengthFt
		v.GutterLF = v.Eave
	}
	for _, f := range m.DetectedFeatures {
		switch f.Type {
		case "skylight":
			v.SkylightCount = float64(f.Count)
		case "chimney":
			v.ChimneyCount = float64(f.Count)
		case "pipe_boot":
			v.PipeCount = float64(f.Count)
		case "vent":
			v.VentCount = float64(f.Count)
		}
	}
	return v
}
