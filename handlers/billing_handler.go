package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/models"
	"p9e.in/roofline/pkg/estimation"
)

// BillingHandler exposes the billing schedule and invoices over HTTP. The
// workflow itself lives in BillingService.
type BillingHandler struct {
	db      *gorm.DB
	billing *BillingService
}

func NewBillingHandler() *BillingHandler {
	return &BillingHandler{db: config.DB, billing: NewBillingService()}
}

func (h *BillingHandler) GetJobSchedule(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	var job models.Job
	if err := h.db.First(&job, "id = ?", jobID).Error; err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	var schedule []models.BillingSchedule
	if err := h.db.Preload("Invoice").Where("job_id = ?", job.ID).
		Order("sort_order").Find(&schedule).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}

	var invoiced, remaining float64
	for _, m := range schedule {
		if m.InvoiceID != nil {
			invoiced += m.Amount
		} else {
			remaining += m.Amount
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_number":      job.JobNumber,
		"contract_amount": job.ContractAmount,
		"schedule":        schedule,
		"invoiced_total":  estimation.Round2(invoiced),
		"remaining_total": estimation.Round2(remaining),
	})
}

// ApplyTemplateRequest re-applies a billing template to a job that has not
// invoiced anything yet.
type ApplyTemplateRequest struct {
	BillingTemplateID string `json:"billing_template_id"`
}

func (h *BillingHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	var req ApplyTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	var job models.Job
	if err := h.db.First(&job, "id = ?", jobID).Error; err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	var template models.BillingTemplate
	if err := h.db.First(&template, "id = ? AND is_active = ?", req.BillingTemplateID, true).Error; err != nil {
		writeError(w, http.StatusNotFound, "billing template not found")
		return
	}

	tx := h.db.Begin()
	if err := h.billing.ApplyTemplate(tx, &job, &template); err != nil {
		tx.Rollback()
		writeDomainError(w, err)
		return
	}
	if err := h.billing.HandleStatusChange(tx, &job, job.Status); err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to run billing trigger")
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit schedule")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "billing template applied"})
}

func (h *BillingHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	query := h.db.Model(&models.Invoice{}).Order("created_at DESC")
	if jobID := r.URL.Query().Get("job_id"); jobID != "" {
		query = query.Where("job_id = ?", jobID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invoices": invoices, "count": len(invoices)})
}

func (h *BillingHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var invoice models.Invoice
	if err := h.db.First(&invoice, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

// invoiceTransitions: draft → sent → paid|overdue; overdue → paid; draft|sent → void.
var invoiceTransitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceStatusDraft:   {models.InvoiceStatusSent, models.InvoiceStatusVoid},
	models.InvoiceStatusSent:    {models.InvoiceStatusPaid, models.InvoiceStatusOverdue, models.InvoiceStatusVoid},
	models.InvoiceStatusOverdue: {models.InvoiceStatusPaid, models.InvoiceStatusVoid},
}

// UpdateInvoiceStatusRequest moves an invoice through its lifecycle.
type UpdateInvoiceStatusRequest struct {
	Status models.InvoiceStatus `json:"status"`
}

func (h *BillingHandler) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateInvoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var invoice models.Invoice
	if err := h.db.First(&invoice, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}

	allowed := false
	for _, next := range invoiceTransitions[invoice.Status] {
		if next == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		writeDomainError(w, &estimation.ConflictError{
			Resource: "invoice",
			Message:  "cannot move from " + string(invoice.Status) + " to " + string(req.Status),
		})
		return
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.Status == models.InvoiceStatusPaid {
		updates["paid_at"] = time.Now()
	}
	result := h.db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", invoice.ID, invoice.Status).
		Updates(updates)
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "failed to update invoice")
		return
	}
	if result.RowsAffected == 0 {
		writeDomainError(w, &estimation.ConflictError{Resource: "invoice", Message: "invoice status changed concurrently"})
		return
	}

	log.Printf("✅ Invoice %s marked %s", invoice.InvoiceNumber, req.Status)
	writeJSON(w, http.StatusOK, map[string]interface{}{"invoice_id": invoice.ID, "status": req.Status})
}
