package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BillingTemplate is a named, ordered list of milestone tuples. The tuples
// themselves live in the Milestones JSONB column as
// []estimation.MilestoneSpec; percentages conventionally sum to 100 but that
// is a product decision, not a constraint here.
type BillingTemplate struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string         `gorm:"size:255" json:"description,omitempty"`
	Milestones  datatypes.JSON `gorm:"type:jsonb;not null" json:"milestones"`
	IsDefault   bool           `gorm:"default:false" json:"is_default"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BillingTemplate) TableName() string {
	return "billing_templates"
}

// BillingSchedule is one milestone of a job's billing plan. InvoiceID is
// attached at most once; an invoiced milestone's amount is locked against
// contract-amount recalculation.
type BillingSchedule struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`

	Name          string    `gorm:"size:100;not null" json:"name"`
	Percentage    float64   `gorm:"type:decimal(5,2);not null" json:"percentage"`
	Amount        float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	TriggerStatus JobStatus `gorm:"size:50;not null;index" json:"trigger_status"`
	SortOrder     int       `gorm:"default:0" json:"sort_order"`

	InvoiceID *uuid.UUID `gorm:"type:uuid" json:"invoice_id,omitempty"`
	Invoice   *Invoice   `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BillingSchedule) TableName() string {
	return "billing_schedules"
}

// InvoiceStatus lifecycle for milestone invoices.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoid    InvoiceStatus = "void"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// Invoice is a billing document for one milestone of a job. Name carries the
// milestone-name prefix the idempotency check matches on.
type Invoice struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`

	InvoiceNumber string        `gorm:"size:50;uniqueIndex;not null" json:"invoice_number"`
	Name          string        `gorm:"size:255;not null" json:"name"`
	Amount        float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status        InvoiceStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Invoice) TableName() string {
	return "invoices"
}
