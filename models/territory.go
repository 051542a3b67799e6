package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ServiceTerritory is a polygonal service-area boundary. Boundary holds a
// GeoJSON Polygon; intake checks new leads against the active territories.
type ServiceTerritory struct {
	ID       uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name     string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Boundary datatypes.JSON `gorm:"type:jsonb;not null" json:"boundary"`
	IsActive bool           `gorm:"default:true" json:"is_active"`

	// Territory-wide pricing default, overridable per estimate.
	GeographicPricingID *uuid.UUID         `gorm:"type:uuid" json:"geographic_pricing_id,omitempty"`
	GeographicPricing   *GeographicPricing `gorm:"foreignKey:GeographicPricingID" json:"geographic_pricing,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ServiceTerritory) TableName() string {
	return "service_territories"
}
