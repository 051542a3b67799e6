package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LineItem is a pricing-catalog entry. The quantity formula references the
// roof variable names (SQ, EAVE, SKYLIGHT_COUNT, ...).
type LineItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Code            string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Category        string    `gorm:"size:50;not null;index" json:"category"` // roofing, flashing, ventilation, gutters, tearoff, misc
	Unit            string    `gorm:"size:20;not null" json:"unit"`           // sq, bundle, lf, each, hour
	QuantityFormula string    `gorm:"size:255;not null" json:"quantity_formula"`
	WasteFactor     float64   `gorm:"type:decimal(5,3);default:1" json:"waste_factor"`
	MaterialCost    float64   `gorm:"type:decimal(10,2);default:0" json:"material_cost"`
	LaborCost       float64   `gorm:"type:decimal(10,2);default:0" json:"labor_cost"`
	EquipmentCost   float64   `gorm:"type:decimal(10,2);default:0" json:"equipment_cost"`
	Taxable         bool      `gorm:"default:true" json:"taxable"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (LineItem) TableName() string {
	return "line_items"
}

// Macro is a reusable named bundle of catalog line items an estimator applies
// to a lead. UsageCount increments on every application.
type Macro struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	RoofType    string    `gorm:"size:50" json:"roof_type,omitempty"` // asphalt_shingle, metal, flat, tile
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	UsageCount  int       `gorm:"default:0" json:"usage_count"`
	CreatedBy   string    `gorm:"size:255;not null" json:"created_by"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Lines []MacroLineItem `gorm:"foreignKey:MacroID" json:"lines,omitempty"`
}

func (Macro) TableName() string {
	return "macros"
}

// MacroLineItem references a catalog LineItem with optional per-macro
// overrides. Nil override fields fall back to the catalog defaults; the
// estimation core records which side won per field.
type MacroLineItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MacroID    uuid.UUID `gorm:"type:uuid;not null;index" json:"macro_id"`
	LineItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"line_item_id"`
	LineItem   *LineItem `gorm:"foreignKey:LineItemID" json:"line_item,omitempty"`

	FormulaOverride   *string  `gorm:"size:255" json:"formula_override,omitempty"`
	WasteOverride     *float64 `gorm:"type:decimal(5,3)" json:"waste_override,omitempty"`
	MaterialOverride  *float64 `gorm:"type:decimal(10,2)" json:"material_override,omitempty"`
	LaborOverride     *float64 `gorm:"type:decimal(10,2)" json:"labor_override,omitempty"`
	EquipmentOverride *float64 `gorm:"type:decimal(10,2)" json:"equipment_override,omitempty"`

	IsSelectedByDefault bool   `gorm:"default:true" json:"is_selected_by_default"`
	IsOptional          bool   `gorm:"default:false" json:"is_optional"`
	SortOrder           int    `gorm:"default:0" json:"sort_order"`
	GroupLabel          string `gorm:"size:100" json:"group_label,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MacroLineItem) TableName() string {
	return "macro_line_items"
}

// GeographicPricing is a regional cost-adjustment profile keyed by market
// name, applied multiplicatively to base unit costs.
type GeographicPricing struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name                string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Region              string    `gorm:"size:100" json:"region,omitempty"`
	MaterialMultiplier  float64   `gorm:"type:decimal(5,3);default:1" json:"material_multiplier"`
	LaborMultiplier     float64   `gorm:"type:decimal(5,3);default:1" json:"labor_multiplier"`
	EquipmentMultiplier float64   `gorm:"type:decimal(5,3);default:1" json:"equipment_multiplier"`
	IsActive            bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (GeographicPricing) TableName() string {
	return "geographic_pricings"
}
