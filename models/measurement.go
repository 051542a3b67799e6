package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RoofPhoto is an uploaded photo of the property, stored on local disk and
// referenced by path. Photos feed the AI measurement step.
type RoofPhoto struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	LeadID uuid.UUID `gorm:"type:uuid;not null;index" json:"lead_id"`

	FileName   string `gorm:"size:255;not null" json:"file_name"`
	FilePath   string `gorm:"size:500;not null" json:"file_path"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedBy string `gorm:"size:255" json:"uploaded_by,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (RoofPhoto) TableName() string {
	return "roof_photos"
}

// RoofMeasurement is the consolidated measurement for a lead: the merge of
// the per-photo analysis results plus the variable vector derived from them.
// Per-photo results are ephemeral; only the merged record persists.
type RoofMeasurement struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	LeadID uuid.UUID `gorm:"type:uuid;not null;index" json:"lead_id"`

	Source     string  `gorm:"size:50;default:'photo_analysis'" json:"source"` // photo_analysis, manual, sketch
	Confidence float64 `gorm:"type:decimal(4,3);default:0" json:"confidence"`
	PhotoCount int     `gorm:"default:0" json:"photo_count"`

	TotalSqFt         float64 `gorm:"type:decimal(10,2);default:0" json:"total_sqft"`
	TotalSquares      float64 `gorm:"type:decimal(8,2);default:0" json:"total_squares"`
	FootprintLengthFt float64 `gorm:"type:decimal(8,2);default:0" json:"footprint_length_ft"`
	FootprintWidthFt  float64 `gorm:"type:decimal(8,2);default:0" json:"footprint_width_ft"`
	DetectedMaterial  string  `gorm:"size:50" json:"detected_material,omitempty"`
	DetectedPitch     float64 `gorm:"type:decimal(4,1);default:0" json:"detected_pitch"`
	PitchCategory     string  `gorm:"size:20" json:"pitch_category,omitempty"`
	RoofStyle         string  `gorm:"size:50" json:"roof_style,omitempty"`

	Planes    datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"planes,omitempty"`
	Features  datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"features,omitempty"`
	Variables datatypes.JSON `gorm:"type:jsonb" json:"variables,omitempty"`
	Notes     pq.StringArray `gorm:"type:text[]" json:"notes,omitempty"`

	CreatedBy string         `gorm:"size:255" json:"created_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (RoofMeasurement) TableName() string {
	return "roof_measurements"
}
