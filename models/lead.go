package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LeadStatus values follow the sales pipeline order.
type LeadStatus string

const (
	LeadStatusNew                 LeadStatus = "new"
	LeadStatusContacted           LeadStatus = "contacted"
	LeadStatusInspectionScheduled LeadStatus = "inspection_scheduled"
	LeadStatusEstimated           LeadStatus = "estimated"
	LeadStatusWon                 LeadStatus = "won"
	LeadStatusLost                LeadStatus = "lost"
)

// Lead represents one homeowner inquiry moving through the intake funnel.
type Lead struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`

	// Contact
	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	Email     string `gorm:"size:255;index" json:"email,omitempty"`
	Phone     string `gorm:"size:20;not null;index" json:"phone"`

	// Property
	AddressLine1 string  `gorm:"size:255;not null" json:"address_line1"`
	AddressLine2 string  `gorm:"size:255" json:"address_line2,omitempty"`
	City         string  `gorm:"size:100;not null" json:"city"`
	State        string  `gorm:"size:2;not null" json:"state"`
	Zip          string  `gorm:"size:10;not null;index" json:"zip"`
	Latitude     float64 `gorm:"type:decimal(10,8)" json:"latitude,omitempty"`
	Longitude    float64 `gorm:"type:decimal(11,8)" json:"longitude,omitempty"`

	// Funnel
	Source        string         `gorm:"size:50;default:'website'" json:"source"` // website, referral, door_knock, storm_response
	Status        LeadStatus     `gorm:"size:50;not null;default:'new';index" json:"status"`
	ProjectType   string         `gorm:"size:50" json:"project_type,omitempty"` // replacement, repair, new_construction
	Notes         string         `gorm:"type:text" json:"notes,omitempty"`
	InServiceArea bool           `gorm:"default:true" json:"in_service_area"`
	AppointmentAt *JSONTime      `json:"appointment_at,omitempty"`
	AssignedToID  *uuid.UUID     `gorm:"type:uuid;index" json:"assigned_to_id,omitempty"`
	AssignedTo    *User          `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	IntakeAnswers datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"intake_answers,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Estimates    []DetailedEstimate `gorm:"foreignKey:LeadID" json:"estimates,omitempty"`
	Measurements []RoofMeasurement  `gorm:"foreignKey:LeadID" json:"measurements,omitempty"`
	Photos       []RoofPhoto        `gorm:"foreignKey:LeadID" json:"photos,omitempty"`
}

func (Lead) TableName() string {
	return "leads"
}

// Customer is created when a lead is won; it anchors the customer portal.
type Customer struct {
	ID     uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	LeadID *uuid.UUID `gorm:"type:uuid;index" json:"lead_id,omitempty"`
	Lead   *Lead      `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"` // portal login, set on invite
	User   *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`

	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	Email     string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone     string `gorm:"size:20" json:"phone,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Jobs []Job `gorm:"foreignKey:CustomerID" json:"jobs,omitempty"`
}

func (Customer) TableName() string {
	return "customers"
}
