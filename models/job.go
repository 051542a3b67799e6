package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobStatus values are the billing-trigger vocabulary: billing milestones
// name one of these as their trigger_status.
type JobStatus string

const (
	JobStatusScheduled             JobStatus = "scheduled"
	JobStatusMaterialsOrdered      JobStatus = "materials_ordered"
	JobStatusInProgress            JobStatus = "in_progress"
	JobStatusSubstantiallyComplete JobStatus = "substantially_complete"
	JobStatusCompleted             JobStatus = "completed"
	JobStatusClosed                JobStatus = "closed"
	JobStatusCancelled             JobStatus = "cancelled"
)

// ValidJobStatuses lists every status a transition may target.
var ValidJobStatuses = []JobStatus{
	JobStatusScheduled, JobStatusMaterialsOrdered, JobStatusInProgress,
	JobStatusSubstantiallyComplete, JobStatusCompleted, JobStatusClosed,
	JobStatusCancelled,
}

// Job is a sold roofing project: an accepted estimate turned into work.
type Job struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobNumber  string     `gorm:"size:50;uniqueIndex;not null" json:"job_number"`
	LeadID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"lead_id"`
	Lead       *Lead      `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer   *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	EstimateID *uuid.UUID `gorm:"type:uuid;index" json:"estimate_id,omitempty"`

	Status         JobStatus `gorm:"size:50;not null;default:'scheduled';index" json:"status"`
	ContractAmount float64   `gorm:"type:decimal(12,2);not null" json:"contract_amount"`

	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	CrewID *uuid.UUID `gorm:"type:uuid;index" json:"crew_id,omitempty"`
	Crew   *Crew      `gorm:"foreignKey:CrewID" json:"crew,omitempty"`

	CreatedBy string         `gorm:"size:255;not null" json:"created_by"`
	UpdatedBy string         `gorm:"size:255" json:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BillingSchedules []BillingSchedule `gorm:"foreignKey:JobID" json:"billing_schedules,omitempty"`
	Invoices         []Invoice         `gorm:"foreignKey:JobID" json:"invoices,omitempty"`
	StatusHistory    []JobStatusEvent  `gorm:"foreignKey:JobID" json:"status_history,omitempty"`
}

func (Job) TableName() string {
	return "jobs"
}

// JobStatusEvent is the audit trail of status transitions. The billing
// trigger runs off these, so a retried transition replays idempotently.
type JobStatusEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID      uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	FromStatus JobStatus `gorm:"size:50;not null" json:"from_status"`
	ToStatus   JobStatus `gorm:"size:50;not null" json:"to_status"`
	ChangedBy  string    `gorm:"size:255;not null" json:"changed_by"`
	Comment    string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (JobStatusEvent) TableName() string {
	return "job_status_events"
}

// Crew is an installation team.
type Crew struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name       string     `gorm:"size:100;uniqueIndex;not null" json:"name"`
	ForemanID  *uuid.UUID `gorm:"type:uuid" json:"foreman_id,omitempty"`
	Foreman    *User      `gorm:"foreignKey:ForemanID" json:"foreman,omitempty"`
	Specialty  string     `gorm:"size:50" json:"specialty,omitempty"` // asphalt, metal, flat, tile
	MaxSquares float64    `gorm:"type:decimal(8,2);default:0" json:"max_squares"` // per-day capacity
	IsActive   bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Members []CrewMember `gorm:"foreignKey:CrewID" json:"members,omitempty"`
}

func (Crew) TableName() string {
	return "crews"
}

// CrewMember links a user to a crew.
type CrewMember struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CrewID uuid.UUID `gorm:"type:uuid;not null;index" json:"crew_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role   string    `gorm:"size:50;default:'installer'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
}

func (CrewMember) TableName() string {
	return "crew_members"
}
