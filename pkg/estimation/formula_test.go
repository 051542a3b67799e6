package estimation

import (
	"errors"
	"math"
	"testing"
)

func testVars() RoofVariables {
	return RoofVariables{
		SQ:            24,
		SF:            2400,
		P:             220,
		Eave:          120,
		R:             45,
		Val:           30,
		Hip:           0,
		Rake:          60,
		SkylightCount: 2,
		ChimneyCount:  1,
		PipeCount:     4,
		VentCount:     6,
		DSCount:       6,
		GutterLF:      120,
	}
}

func TestEvaluateFormula(t *testing.T) {
	vars := testVars()

	tests := []struct {
		name     string
		formula  string
		expected float64
	}{
		{"single variable", "SQ", 24},
		{"literal", "42", 42},
		{"variable times literal", "EAVE * 1.05", 126},
		{"whitespace insensitive", "  EAVE*1.05 ", 126},
		{"sum of variables", "EAVE + RAKE", 180},
		{"parenthesized", "(SQ + VAL / 100) * 3", 72.9},
		{"precedence", "SQ + VAL * 2", 84},
		{"division", "SF / 100", 24},
		{"alias RIDGE for R", "RIDGE", 45},
		{"alias VALLEY for VAL", "VALLEY", 30},
		{"counts", "SKYLIGHT_COUNT + CHIMNEY_COUNT + PIPE_COUNT", 7},
		{"unary minus", "-SQ + 30", 6},
		{"unary minus after multiply", "SQ * -2", -48},
		{"unary minus after divide", "10 / -2", -5},
		{"negated term in sum", "2 * -3 + 1", -5},
		{"minus then unary minus", "5 - -3", 8},
		{"double negation", "--SQ", 24},
		{"lowercase identifier", "eave * 2", 240},
		// Missing variables degrade to 0 instead of failing, so catalog
		// formulas keep working against partial variable sets.
		{"unknown variable is zero", "CRICKET_COUNT * 150", 0},
		{"unknown variable in sum", "EAVE + NOT_A_FIELD", 120},
		{"division by zero is zero", "SQ / HIP", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateFormula(tt.formula, vars)
			if err != nil {
				t.Fatalf("EvaluateFormula(%q) returned error: %v", tt.formula, err)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("EvaluateFormula(%q) = %v, expected %v", tt.formula, got, tt.expected)
			}
		})
	}
}

func TestEvaluateFormulaMalformed(t *testing.T) {
	vars := testVars()

	tests := []struct {
		name    string
		formula string
	}{
		{"empty", ""},
		{"only whitespace", "   "},
		{"unbalanced open paren", "(SQ + 1"},
		{"unbalanced close paren", "SQ + 1)"},
		{"trailing operator", "SQ *"},
		{"leading star", "* SQ"},
		{"double operator", "SQ * / 2"},
		{"unknown character", "SQ % 2"},
		{"adjacent operands", "SQ SF"},
		{"bad number", "1.2.3 + SQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateFormula(tt.formula, vars)
			if err == nil {
				t.Fatalf("EvaluateFormula(%q) expected error, got nil", tt.formula)
			}
			var fe *FormulaError
			if !errors.As(err, &fe) {
				t.Errorf("EvaluateFormula(%q) error = %T, expected *FormulaError", tt.formula, err)
			}
		})
	}
}

func TestEvaluateFormulaSlopeScope(t *testing.T) {
	roof := testVars()
	scope := SlopeScope{
		Roof:  roof,
		Slope: SlopeVariables{SQ: 8, SF: 800, Pitch: 6, Eave: 40, Ridge: 20},
	}

	got, err := EvaluateFormula("SQ * PITCH", scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 48 {
		t.Errorf("slope-scoped SQ * PITCH = %v, expected 48", got)
	}

	// Counts are not slope fields; they fall back to the roof totals.
	got, err = EvaluateFormula("PIPE_COUNT", scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4 {
		t.Errorf("slope-scoped PIPE_COUNT = %v, expected roof fallback 4", got)
	}
}
