package estimation

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func f64(v float64) *float64 { return &v }
func str(s string) *string   { return &s }

func testMacro() MacroSnapshot {
	return MacroSnapshot{
		Name: "Asphalt Shingle Replacement",
		Lines: []MacroLine{
			{
				Item: CatalogItem{
					Code: "SHNG-ARCH", Name: "Architectural shingles", Category: "roofing",
					Unit: "bundle", QuantityFormula: "SQ * 3", WasteFactor: 1.10,
					MaterialCost: 38, LaborCost: 60, Taxable: true,
				},
				Included: true, SortOrder: 1, GroupLabel: "Roofing",
			},
			{
				Item: CatalogItem{
					Code: "DRIP-EDGE", Name: "Drip edge", Category: "flashing",
					Unit: "lf", QuantityFormula: "EAVE + RAKE", WasteFactor: 1.05,
					MaterialCost: 2.5, LaborCost: 1.5, Taxable: true,
				},
				Included: true, SortOrder: 2, GroupLabel: "Flashing",
			},
			{
				Item: CatalogItem{
					Code: "SKY-FLASH", Name: "Skylight flashing kit", Category: "flashing",
					Unit: "each", QuantityFormula: "SKYLIGHT_COUNT",
					MaterialCost: 85, LaborCost: 120, Taxable: true,
				},
				Included: false, Optional: true, SortOrder: 3, GroupLabel: "Flashing",
			},
			{
				Item: CatalogItem{
					Code: "BROKEN", Name: "Broken catalog entry", Category: "misc",
					Unit: "each", QuantityFormula: "EAVE *",
					MaterialCost: 10, LaborCost: 10,
				},
				Included: true, SortOrder: 4,
			},
		},
	}
}

func TestApplyMacroRollups(t *testing.T) {
	pct := Percentages{Overhead: 10, Profit: 10, Tax: 7}
	est := ApplyMacro(testMacro(), testVars(), GeoMultipliers{}, pct)

	if len(est.Lines) != 4 {
		t.Fatalf("expected all 4 lines in output (included and excluded), got %d", len(est.Lines))
	}

	checks := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"subtotal", est.Subtotal, 8517.60},
		{"overhead_amount", est.OverheadAmount, 851.76},
		{"profit_amount", est.ProfitAmount, 936.94},
		{"taxable_amount", est.TaxableAmount, 8517.60},
		{"tax_amount", est.TaxAmount, 596.23},
		{"price_likely", est.PriceLikely, 10902.53},
		{"price_low", est.PriceLow, 9812.28},
		{"price_high", est.PriceHigh, 12537.91},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s = %v, expected %v", c.name, c.got, c.expected)
		}
	}

	shingles := est.Lines[0]
	if shingles.Quantity != 72 || shingles.QuantityWithWaste != 79.2 {
		t.Errorf("shingle quantities = %v/%v, expected 72/79.2", shingles.Quantity, shingles.QuantityWithWaste)
	}
	if shingles.LineTotal != 7761.60 {
		t.Errorf("shingle line_total = %v, expected 7761.60", shingles.LineTotal)
	}
	if shingles.Formula.Source != "catalog" {
		t.Errorf("shingle formula source = %q, expected catalog", shingles.Formula.Source)
	}

	// The optional, unselected line is present but contributes nothing.
	sky := est.Lines[2]
	if sky.Included || sky.LineTotal != 410 {
		t.Errorf("optional line included=%v total=%v, expected excluded with total 410", sky.Included, sky.LineTotal)
	}

	// The broken formula degrades to quantity 0 and surfaces as a warning;
	// it must not abort the estimate.
	broken := est.Lines[3]
	if broken.Quantity != 0 || broken.LineTotal != 0 {
		t.Errorf("broken line qty=%v total=%v, expected 0/0", broken.Quantity, broken.LineTotal)
	}
	if len(est.Warnings) != 1 || !strings.HasPrefix(est.Warnings[0], "BROKEN:") {
		t.Errorf("warnings = %v, expected one warning for BROKEN", est.Warnings)
	}
}

func TestApplyMacroDeterministic(t *testing.T) {
	pct := Percentages{Overhead: 12, Profit: 18, Tax: 6.5}
	geo := GeoMultipliers{Material: 1.08, Labor: 1.22, Equipment: 1.0}

	a := ApplyMacro(testMacro(), testVars(), geo, pct)
	b := ApplyMacro(testMacro(), testVars(), geo, pct)

	aj, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	bj, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(aj, bj) {
		t.Error("ApplyMacro is not deterministic: two identical calls produced different output")
	}
}

func TestApplyMacroOverrides(t *testing.T) {
	macro := MacroSnapshot{
		Name: "custom",
		Lines: []MacroLine{
			{
				Item: CatalogItem{
					Code: "SHNG-ARCH", QuantityFormula: "SQ * 3", WasteFactor: 1.10,
					MaterialCost: 38, LaborCost: 60, Taxable: true,
				},
				FormulaOverride: str("SQ * 4"),
				WasteOverride:   f64(1.15),
				LaborOverride:   f64(72),
				Included:        true,
			},
		},
	}
	est := ApplyMacro(macro, testVars(), GeoMultipliers{}, Percentages{})

	line := est.Lines[0]
	if line.Formula.Source != "override" || line.Formula.Value != "SQ * 4" {
		t.Errorf("formula resolution = %+v, expected override SQ * 4", line.Formula)
	}
	if line.WasteFactor.Source != "override" || line.WasteFactor.Value != 1.15 {
		t.Errorf("waste resolution = %+v, expected override 1.15", line.WasteFactor)
	}
	if line.Quantity != 96 {
		t.Errorf("quantity = %v, expected 96 from overridden formula", line.Quantity)
	}
	if line.LaborUnitCost != 72 {
		t.Errorf("labor unit cost = %v, expected override 72", line.LaborUnitCost)
	}
	if line.MaterialUnitCost != 38 {
		t.Errorf("material unit cost = %v, expected catalog 38", line.MaterialUnitCost)
	}
}

func TestApplyMacroGeoMultipliers(t *testing.T) {
	macro := MacroSnapshot{
		Name: "geo",
		Lines: []MacroLine{
			{
				Item: CatalogItem{
					Code: "SHNG-ARCH", QuantityFormula: "10", WasteFactor: 1,
					MaterialCost: 100, LaborCost: 50, EquipmentCost: 20,
				},
				Included: true,
			},
		},
	}
	geo := GeoMultipliers{Material: 1.10, Labor: 1.30, Equipment: 0.90}
	est := ApplyMacro(macro, RoofVariables{}, geo, Percentages{})

	line := est.Lines[0]
	if line.MaterialUnitCost != 110 || line.LaborUnitCost != 65 || line.EquipmentUnitCost != 18 {
		t.Errorf("geo-adjusted unit costs = %v/%v/%v, expected 110/65/18",
			line.MaterialUnitCost, line.LaborUnitCost, line.EquipmentUnitCost)
	}
	if est.Subtotal != 1930 {
		t.Errorf("subtotal = %v, expected 1930", est.Subtotal)
	}

	// The zero profile means no geographic adjustment at all.
	est = ApplyMacro(macro, RoofVariables{}, GeoMultipliers{}, Percentages{})
	if est.Subtotal != 1700 {
		t.Errorf("subtotal with default multipliers = %v, expected 1700", est.Subtotal)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0.125, 0.13}, // exact binary half rounds up
		{0.124, 0.12},
		{1.004, 1.0},
		{0, 0},
		{10902.528, 10902.53},
		// Negative values mirror the positive behavior, so a credit line
		// rounds the same magnitude as the charge it offsets.
		{-0.125, -0.13},
		{-0.124, -0.12},
		{-10902.528, -10902.53},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.expected {
			t.Errorf("Round2(%v) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}
