package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/models"
	"p9e.in/roofline/pkg/estimation"
)

// BillingService owns the milestone billing workflow: expanding a template
// into a job's schedule, repricing on contract changes, and the
// status-transition trigger that turns due milestones into draft invoices.
type BillingService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewBillingService() *BillingService {
	return &BillingService{
		db:            config.DB,
		notifications: NewNotificationService(),
	}
}

// ApplyTemplate expands a billing template against the job's contract amount
// and persists the schedule. A job carries at most one schedule; reapplying
// replaces milestones that have not been invoiced yet and fails if any have.
func (bs *BillingService) ApplyTemplate(tx *gorm.DB, job *models.Job, template *models.BillingTemplate) error {
	var specs []estimation.MilestoneSpec
	if err := json.Unmarshal(template.Milestones, &specs); err != nil {
		return fmt.Errorf("template %s has unreadable milestones: %w", template.ID, err)
	}

	milestones, err := estimation.BuildSchedule(job.ContractAmount, specs)
	if err != nil {
		return err
	}

	var invoicedCount int64
	if err := tx.Model(&models.BillingSchedule{}).
		Where("job_id = ? AND invoice_id IS NOT NULL", job.ID).
		Count(&invoicedCount).Error; err != nil {
		return err
	}
	if invoicedCount > 0 {
		return &estimation.ConflictError{Resource: "billing_schedule", Message: "job already has invoiced milestones"}
	}
	if err := tx.Where("job_id = ?", job.ID).Delete(&models.BillingSchedule{}).Error; err != nil {
		return err
	}

	for i, m := range milestones {
		row := models.BillingSchedule{
			JobID:         job.ID,
			Name:          m.Name,
			Percentage:    m.Percentage,
			Amount:        m.Amount,
			TriggerStatus: models.JobStatus(m.TriggerStatus),
			SortOrder:     i + 1,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	log.Printf("✅ Applied billing template %q to job %s (%d milestones)", template.Name, job.JobNumber, len(milestones))
	return nil
}

// Recalculate reprices the schedule against a new contract amount. Invoiced
// milestones keep their amounts.
func (bs *BillingService) Recalculate(tx *gorm.DB, job *models.Job, newAmount float64) error {
	var rows []models.BillingSchedule
	if err := tx.Where("job_id = ?", job.ID).Order("sort_order").Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	milestones := make([]estimation.Milestone, len(rows))
	for i, row := range rows {
		milestones[i] = estimation.Milestone{
			Name:          row.Name,
			Percentage:    row.Percentage,
			TriggerStatus: string(row.TriggerStatus),
			Amount:        row.Amount,
			Invoiced:      row.InvoiceID != nil,
		}
	}
	recalced, err := estimation.RecalculateAmounts(milestones, newAmount)
	if err != nil {
		return err
	}
	for i := range rows {
		if milestones[i].Invoiced || rows[i].Amount == recalced[i].Amount {
			continue
		}
		if err := tx.Model(&rows[i]).Update("amount", recalced[i].Amount).Error; err != nil {
			return err
		}
	}
	return nil
}

// HandleStatusChange runs the auto-invoicing trigger: every schedule milestone
// whose trigger matches the new status gets a draft invoice. A retried
// transition re-links the invoice it already created, matched by name prefix,
// instead of issuing a duplicate.
func (bs *BillingService) HandleStatusChange(tx *gorm.DB, job *models.Job, newStatus models.JobStatus) error {
	var due []models.BillingSchedule
	if err := tx.Where("job_id = ? AND trigger_status = ?", job.ID, newStatus).
		Order("sort_order").Find(&due).Error; err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	var existing []models.Invoice
	if err := tx.Where("job_id = ?", job.ID).Find(&existing).Error; err != nil {
		return err
	}
	refs := make([]estimation.InvoiceRef, len(existing))
	for i, inv := range existing {
		refs[i] = estimation.InvoiceRef{ID: inv.ID.String(), Name: inv.Name}
	}

	for i := range due {
		milestone := &due[i]
		if milestone.InvoiceID != nil {
			continue
		}
		if match := estimation.MatchInvoice(refs, milestone.Name); match != nil {
			invoiceID, err := uuid.Parse(match.ID)
			if err != nil {
				return err
			}
			if err := tx.Model(milestone).Update("invoice_id", invoiceID).Error; err != nil {
				return err
			}
			log.Printf("⚠️  Milestone %q on job %s re-linked to existing invoice %s", milestone.Name, job.JobNumber, match.ID)
			continue
		}

		invoice := models.Invoice{
			JobID:         job.ID,
			InvoiceNumber: bs.nextInvoiceNumber(tx),
			Name:          fmt.Sprintf("%s - %s", milestone.Name, job.JobNumber),
			Amount:        milestone.Amount,
			Status:        models.InvoiceStatusDraft,
		}
		dueDate := time.Now().AddDate(0, 0, 14)
		invoice.DueDate = &dueDate

		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		if err := tx.Model(milestone).Update("invoice_id", invoice.ID).Error; err != nil {
			return err
		}
		refs = append(refs, estimation.InvoiceRef{ID: invoice.ID.String(), Name: invoice.Name})
		log.Printf("✅ Invoiced milestone %q on job %s: %s for $%.2f",
			milestone.Name, job.JobNumber, invoice.InvoiceNumber, invoice.Amount)

		if job.Lead != nil {
			bs.notifications.NotifyInvoiceCreated(job.Lead, &invoice, milestone.Name)
		}
	}
	return nil
}

// nextInvoiceNumber issues INV-<year>-<seq>. Sequence is per-year row count;
// the unique index on invoice_number backstops races.
func (bs *BillingService) nextInvoiceNumber(tx *gorm.DB) string {
	year := time.Now().Year()
	var count int64
	tx.Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", fmt.Sprintf("INV-%d-%%", year)).
		Count(&count)
	return fmt.Sprintf("INV-%d-%04d", year, count+1)
}
