package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EstimateStatus lifecycle: draft transitions to accepted or rejected exactly
// once; expired is the time-based terminal state.
type EstimateStatus string

const (
	EstimateStatusDraft    EstimateStatus = "draft"
	EstimateStatusAccepted EstimateStatus = "accepted"
	EstimateStatusRejected EstimateStatus = "rejected"
	EstimateStatusExpired  EstimateStatus = "expired"
)

// TerminalEstimateStatuses guard the conditional accept/reject update: the
// UPDATE only succeeds while status is outside this set, and zero rows
// affected surfaces as a conflict.
var TerminalEstimateStatuses = []EstimateStatus{
	EstimateStatusAccepted, EstimateStatusRejected, EstimateStatusExpired,
}

// DetailedEstimate is the priced output of the macro applier, owned by a
// lead. Variables, lines and warnings persist as JSONB snapshots so the
// estimate stays reproducible after the catalog changes.
type DetailedEstimate struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	LeadID uuid.UUID `gorm:"type:uuid;not null;index" json:"lead_id"`
	Lead   *Lead     `gorm:"foreignKey:LeadID" json:"lead,omitempty"`

	MacroID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"macro_id"`
	Macro               *Macro     `gorm:"foreignKey:MacroID" json:"macro,omitempty"`
	GeographicPricingID *uuid.UUID `gorm:"type:uuid" json:"geographic_pricing_id,omitempty"`

	Status     EstimateStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`
	ValidUntil *time.Time     `json:"valid_until,omitempty"`

	// Snapshot of the inputs and resolved output at pricing time.
	Variables datatypes.JSON `gorm:"type:jsonb;not null" json:"variables"`
	Lines     datatypes.JSON `gorm:"type:jsonb;not null" json:"lines"`
	Warnings  datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"warnings,omitempty"`

	MaterialTotal  float64 `gorm:"type:decimal(12,2);default:0" json:"material_total"`
	LaborTotal     float64 `gorm:"type:decimal(12,2);default:0" json:"labor_total"`
	EquipmentTotal float64 `gorm:"type:decimal(12,2);default:0" json:"equipment_total"`
	Subtotal       float64 `gorm:"type:decimal(12,2);default:0" json:"subtotal"`
	OverheadPct    float64 `gorm:"type:decimal(5,2);default:0" json:"overhead_pct"`
	OverheadAmount float64 `gorm:"type:decimal(12,2);default:0" json:"overhead_amount"`
	ProfitPct      float64 `gorm:"type:decimal(5,2);default:0" json:"profit_pct"`
	ProfitAmount   float64 `gorm:"type:decimal(12,2);default:0" json:"profit_amount"`
	TaxPct         float64 `gorm:"type:decimal(5,2);default:0" json:"tax_pct"`
	TaxableAmount  float64 `gorm:"type:decimal(12,2);default:0" json:"taxable_amount"`
	TaxAmount      float64 `gorm:"type:decimal(12,2);default:0" json:"tax_amount"`
	PriceLow       float64 `gorm:"type:decimal(12,2);default:0" json:"price_low"`
	PriceLikely    float64 `gorm:"type:decimal(12,2);default:0" json:"price_likely"`
	PriceHigh      float64 `gorm:"type:decimal(12,2);default:0" json:"price_high"`

	CreatedBy   string     `gorm:"size:255;not null" json:"created_by"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	RespondedBy string     `gorm:"size:255" json:"responded_by,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DetailedEstimate) TableName() string {
	return "detailed_estimates"
}

// IsExpired reports whether the validity window has lapsed. Expiry is
// evaluated at read/accept time rather than by a background sweep.
func (e *DetailedEstimate) IsExpired(now time.Time) bool {
	return e.ValidUntil != nil && now.After(*e.ValidUntil)
}
