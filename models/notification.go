package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationChannel defines how a notification is delivered
type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelSMS   NotificationChannel = "sms"
	NotificationChannelInApp NotificationChannel = "in_app"
)

// NotificationStatus defines the delivery state of an outbox row
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// NotificationEvent names the business event that produced the notification
type NotificationEvent string

const (
	NotificationEventLeadCreated      NotificationEvent = "lead_created"
	NotificationEventEstimateSent     NotificationEvent = "estimate_sent"
	NotificationEventEstimateAccepted NotificationEvent = "estimate_accepted"
	NotificationEventInvoiceCreated   NotificationEvent = "invoice_created"
	NotificationEventJobScheduled     NotificationEvent = "job_scheduled"
)

// Notification is an outbox row. Rendering happens at enqueue time; actual
// email/SMS delivery is a separate process reading pending rows.
type Notification struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`

	Event     NotificationEvent   `gorm:"size:50;not null;index" json:"event"`
	Channel   NotificationChannel `gorm:"size:20;not null" json:"channel"`
	Status    NotificationStatus  `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Recipient string              `gorm:"size:255;not null" json:"recipient"` // email address or phone number
	Subject   string              `gorm:"size:255" json:"subject,omitempty"`
	Body      string              `gorm:"type:text;not null" json:"body"`

	LeadID    *uuid.UUID `gorm:"type:uuid;index" json:"lead_id,omitempty"`
	JobID     *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`
	InvoiceID *uuid.UUID `gorm:"type:uuid" json:"invoice_id,omitempty"`

	SentAt    *time.Time     `json:"sent_at,omitempty"`
	LastError string         `gorm:"size:500" json:"last_error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
