package estimation

import "math"

// Resolved carries a per-field override resolution: the effective value and
// where it came from. Modeling this explicitly keeps the override precedence
// (macro line override beats catalog default) auditable instead of being
// nullable-coalescing scattered through the pricing math.
type Resolved[T any] struct {
	Value  T      `json:"value"`
	Source string `json:"source"` // "override" or "catalog"
}

func resolve[T any](override *T, catalog T) Resolved[T] {
	if override != nil {
		return Resolved[T]{Value: *override, Source: "override"}
	}
	return Resolved[T]{Value: catalog, Source: "catalog"}
}

// CatalogItem is a pricing-catalog entry passed into the applier by value.
type CatalogItem struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Unit            string  `json:"unit"`
	QuantityFormula string  `json:"quantity_formula"`
	WasteFactor     float64 `json:"waste_factor"`
	MaterialCost    float64 `json:"material_cost"`
	LaborCost       float64 `json:"labor_cost"`
	EquipmentCost   float64 `json:"equipment_cost"`
	Taxable         bool    `json:"taxable"`
}

// MacroLine is one line of a macro: a catalog item reference plus optional
// per-macro overrides.
type MacroLine struct {
	Item              CatalogItem `json:"item"`
	FormulaOverride   *string     `json:"formula_override,omitempty"`
	WasteOverride     *float64    `json:"waste_override,omitempty"`
	MaterialOverride  *float64    `json:"material_override,omitempty"`
	LaborOverride     *float64    `json:"labor_override,omitempty"`
	EquipmentOverride *float64    `json:"equipment_override,omitempty"`
	Included          bool        `json:"included"`
	Optional          bool        `json:"optional"`
	SortOrder         int         `json:"sort_order"`
	GroupLabel        string      `json:"group_label"`
}

// MacroSnapshot is the immutable macro value handed to ApplyMacro. The caller
// loads it from storage; the calculation never touches the database.
type MacroSnapshot struct {
	Name  string      `json:"name"`
	Lines []MacroLine `json:"lines"`
}

// GeoMultipliers are regional cost adjustments. The zero profile means "no
// geographic pricing": all factors 1.
type GeoMultipliers struct {
	Material  float64 `json:"material"`
	Labor     float64 `json:"labor"`
	Equipment float64 `json:"equipment"`
}

func (g GeoMultipliers) orDefault() GeoMultipliers {
	if g.Material == 0 {
		g.Material = 1
	}
	if g.Labor == 0 {
		g.Labor = 1
	}
	if g.Equipment == 0 {
		g.Equipment = 1
	}
	return g
}

// Percentages are the markup knobs applied on top of the line subtotal.
type Percentages struct {
	Overhead float64 `json:"overhead"`
	Profit   float64 `json:"profit"`
	Tax      float64 `json:"tax"`
}

// PricedLine is one fully resolved, priced line of the output. Every macro
// line appears, included or not, so a UI can toggle optional items and ask
// for a recompute.
type PricedLine struct {
	Code              string            `json:"code"`
	Name              string            `json:"name"`
	Category          string            `json:"category"`
	Unit              string            `json:"unit"`
	GroupLabel        string            `json:"group_label,omitempty"`
	SortOrder         int               `json:"sort_order"`
	Included          bool              `json:"included"`
	Optional          bool              `json:"optional"`
	Formula           Resolved[string]  `json:"formula"`
	WasteFactor       Resolved[float64] `json:"waste_factor"`
	Quantity          float64           `json:"quantity"`
	QuantityWithWaste float64           `json:"quantity_with_waste"`
	MaterialUnitCost  float64           `json:"material_unit_cost"`
	LaborUnitCost     float64           `json:"labor_unit_cost"`
	EquipmentUnitCost float64           `json:"equipment_unit_cost"`
	MaterialTotal     float64           `json:"material_total"`
	LaborTotal        float64           `json:"labor_total"`
	EquipmentTotal    float64           `json:"equipment_total"`
	LineTotal         float64           `json:"line_total"`
	Taxable           bool              `json:"taxable"`
}

// PricedEstimate is the applier's output: resolved lines, rollups, the price
// band, and any per-line formula warnings.
type PricedEstimate struct {
	MacroName      string       `json:"macro_name"`
	Lines          []PricedLine `json:"lines"`
	MaterialTotal  float64      `json:"material_total"`
	LaborTotal     float64      `json:"labor_total"`
	EquipmentTotal float64      `json:"equipment_total"`
	Subtotal       float64      `json:"subtotal"`
	OverheadPct    float64      `json:"overhead_pct"`
	OverheadAmount float64      `json:"overhead_amount"`
	ProfitPct      float64      `json:"profit_pct"`
	ProfitAmount   float64      `json:"profit_amount"`
	TaxPct         float64      `json:"tax_pct"`
	TaxableAmount  float64      `json:"taxable_amount"`
	TaxAmount      float64      `json:"tax_amount"`
	PriceLow       float64      `json:"price_low"`
	PriceLikely    float64      `json:"price_likely"`
	PriceHigh      float64      `json:"price_high"`
	Warnings       []string     `json:"warnings,omitempty"`
}

// Price band around price_likely. Fixed in the current design; callers rely
// on these defaults for compatibility.
const (
	priceLowFactor  = 0.90
	priceHighFactor = 1.15
)

// Round2 rounds half away from zero to 2 decimal places. Applied only at
// output; all summation happens on full-precision values.
func Round2(v float64) float64 {
	if v < 0 {
		return -math.Floor(-v*100+0.5) / 100
	}
	return math.Floor(v*100+0.5) / 100
}

// ApplyMacro prices a macro against a variable snapshot. Pure and
// deterministic: the same inputs always produce identical output. A line
// whose formula fails evaluates to quantity 0 and is reported in Warnings;
// one broken catalog formula never sinks the whole estimate.
func ApplyMacro(macro MacroSnapshot, vars RoofVariables, geo GeoMultipliers, pct Percentages) PricedEstimate {
	geo = geo.orDefault()

	est := PricedEstimate{
		MacroName:   macro.Name,
		Lines:       make([]PricedLine, 0, len(macro.Lines)),
		OverheadPct: pct.Overhead,
		ProfitPct:   pct.Profit,
		TaxPct:      pct.Tax,
	}

	var material, labor, equipment, subtotal, taxable float64
	for _, ml := range macro.Lines {
		formula := resolve(ml.FormulaOverride, ml.Item.QuantityFormula)
		waste := resolve(ml.WasteOverride, ml.Item.WasteFactor)
		if waste.Value < 1 {
			waste.Value = 1
		}

		qty, err := EvaluateFormula(formula.Value, vars)
		if err != nil {
			est.Warnings = append(est.Warnings, ml.Item.Code+": "+err.Error())
			qty = 0
		}
		if qty < 0 {
			qty = 0
		}
		qtyWaste := qty * waste.Value

		matUnit := resolve(ml.MaterialOverride, ml.Item.MaterialCost).Value * geo.Material
		labUnit := resolve(ml.LaborOverride, ml.Item.LaborCost).Value * geo.Labor
		eqpUnit := resolve(ml.EquipmentOverride, ml.Item.EquipmentCost).Value * geo.Equipment

		matTotal := qtyWaste * matUnit
		labTotal := qtyWaste * labUnit
		eqpTotal := qtyWaste * eqpUnit
		lineTotal := matTotal + labTotal + eqpTotal

		if ml.Included {
			material += matTotal
			labor += labTotal
			equipment += eqpTotal
			subtotal += lineTotal
			if ml.Item.Taxable {
				taxable += lineTotal
			}
		}

		est.Lines = append(est.Lines, PricedLine{
			Code:              ml.Item.Code,
			Name:              ml.Item.Name,
			Category:          ml.Item.Category,
			Unit:              ml.Item.Unit,
			GroupLabel:        ml.GroupLabel,
			SortOrder:         ml.SortOrder,
			Included:          ml.Included,
			Optional:          ml.Optional,
			Formula:           formula,
			WasteFactor:       waste,
			Quantity:          Round2(qty),
			QuantityWithWaste: Round2(qtyWaste),
			MaterialUnitCost:  Round2(matUnit),
			LaborUnitCost:     Round2(labUnit),
			EquipmentUnitCost: Round2(eqpUnit),
			MaterialTotal:     Round2(matTotal),
			LaborTotal:        Round2(labTotal),
			EquipmentTotal:    Round2(eqpTotal),
			LineTotal:         Round2(lineTotal),
			Taxable:           ml.Item.Taxable,
		})
	}

	overhead := subtotal * pct.Overhead / 100
	profit := (subtotal + overhead) * pct.Profit / 100
	tax := taxable * pct.Tax / 100
	likely := subtotal + overhead + profit + tax

	est.MaterialTotal = Round2(material)
	est.LaborTotal = Round2(labor)
	est.EquipmentTotal = Round2(equipment)
	est.Subtotal = Round2(subtotal)
	est.OverheadAmount = Round2(overhead)
	est.ProfitAmount = Round2(profit)
	est.TaxableAmount = Round2(taxable)
	est.TaxAmount = Round2(tax)
	est.PriceLikely = Round2(likely)
	est.PriceLow = Round2(likely * priceLowFactor)
	est.PriceHigh = Round2(likely * priceHighFactor)
	return est
}
