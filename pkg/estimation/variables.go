package estimation

// SlopeVariables holds the measurements of a single roof facet.
type SlopeVariables struct {
	SQ     float64 `json:"sq"`
	SF     float64 `json:"sf"`
	Pitch  float64 `json:"pitch"`
	Eave   float64 `json:"eave"`
	Ridge  float64 `json:"ridge"`
	Valley float64 `json:"valley"`
	Hip    float64 `json:"hip"`
	Rake   float64 `json:"rake"`
}

// RoofVariables is the canonical measurement vector every pricing formula
// reads from. Whole-roof totals are in squares / square feet / linear feet;
// counts are unit counts. Per-slope breakdowns are optional and the model does
// not reconcile their sums against the whole-roof totals.
type RoofVariables struct {
	SQ   float64 `json:"sq"`
	SF   float64 `json:"sf"`
	P    float64 `json:"p"`
	Eave float64 `json:"eave"`
	R    float64 `json:"r"`
	Val  float64 `json:"val"`
	Hip  float64 `json:"hip"`
	Rake float64 `json:"rake"`

	SkylightCount float64 `json:"skylight_count"`
	ChimneyCount  float64 `json:"chimney_count"`
	PipeCount     float64 `json:"pipe_count"`
	VentCount     float64 `json:"vent_count"`
	DSCount       float64 `json:"ds_count"`
	GutterLF      float64 `json:"gutter_lf"`

	Slopes map[string]SlopeVariables `json:"slopes,omitempty"`
}

// Lookup resolves a formula variable name against the whole-roof totals.
// Unknown names return (0, false); the evaluator treats them as zero so a
// catalog formula can reference optional fields without breaking.
func (v RoofVariables) Lookup(name string) (float64, bool) {
	switch name {
	case "SQ":
		return v.SQ, true
	case "SF":
		return v.SF, true
	case "P":
		return v.P, true
	case "EAVE":
		return v.Eave, true
	case "R", "RIDGE":
		return v.R, true
	case "VAL", "VALLEY":
		return v.Val, true
	case "HIP":
		return v.Hip, true
	case "RAKE":
		return v.Rake, true
	case "SKYLIGHT_COUNT":
		return v.SkylightCount, true
	case "CHIMNEY_COUNT":
		return v.ChimneyCount, true
	case "PIPE_COUNT":
		return v.PipeCount, true
	case "VENT_COUNT":
		return v.VentCount, true
	case "DS_COUNT":
		return v.DSCount, true
	case "GUTTER_LF":
		return v.GutterLF, true
	}
	return 0, false
}

// SlopeScope narrows variable resolution to one slope. Names fall back to the
// whole-roof vector when the slope does not define them (counts, gutter).
type SlopeScope struct {
	Roof  RoofVariables
	Slope SlopeVariables
}

func (s SlopeScope) Lookup(name string) (float64, bool) {
	switch name {
	case "SQ":
		return s.Slope.SQ, true
	case "SF":
		return s.Slope.SF, true
	case "PITCH":
		return s.Slope.Pitch, true
	case "EAVE":
		return s.Slope.Eave, true
	case "R", "RIDGE":
		return s.Slope.Ridge, true
	case "VAL", "VALLEY":
		return s.Slope.Valley, true
	case "HIP":
		return s.Slope.Hip, true
	case "RAKE":
		return s.Slope.Rake, true
	}
	return s.Roof.Lookup(name)
}

// Validate rejects negative measurements. Called at the API boundary before
// any pricing runs; the pure calculation itself assumes valid input.
func (v RoofVariables) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"sq", v.SQ}, {"sf", v.SF}, {"p", v.P},
		{"eave", v.Eave}, {"r", v.R}, {"val", v.Val},
		{"hip", v.Hip}, {"rake", v.Rake},
		{"skylight_count", v.SkylightCount}, {"chimney_count", v.ChimneyCount},
		{"pipe_count", v.PipeCount}, {"vent_count", v.VentCount},
		{"ds_count", v.DSCount}, {"gutter_lf", v.GutterLF},
	}
	for _, f := range fields {
		if f.value < 0 {
			return &ValidationError{Field: f.name, Message: "must be non-negative"}
		}
	}
	for id, s := range v.Slopes {
		if s.SQ < 0 || s.SF < 0 || s.Eave < 0 || s.Ridge < 0 || s.Valley < 0 || s.Hip < 0 || s.Rake < 0 {
			return &ValidationError{Field: "slopes." + id, Message: "must be non-negative"}
		}
	}
	return nil
}
