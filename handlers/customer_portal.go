package handlers

import (
	"net/http"

	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/middleware"
	"p9e.in/roofline/models"
)

// PortalHandler serves the customer-facing read views. Portal users carry the
// customer role; everything is scoped to the customer record linked to the
// authenticated user.
type PortalHandler struct {
	db *gorm.DB
}

func NewPortalHandler() *PortalHandler {
	return &PortalHandler{db: config.DB}
}

func (h *PortalHandler) customerFor(r *http.Request) (*models.Customer, bool) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		return nil, false
	}
	var customer models.Customer
	if err := h.db.Preload("Lead").Where("user_id = ?", userID).First(&customer).Error; err != nil {
		return nil, false
	}
	return &customer, true
}

// GetMyProjects returns the customer's jobs with billing progress.
func (h *PortalHandler) GetMyProjects(w http.ResponseWriter, r *http.Request) {
	customer, ok := h.customerFor(r)
	if !ok {
		writeError(w, http.StatusNotFound, "no customer record for this account")
		return
	}

	var jobs []models.Job
	err := h.db.
		Preload("BillingSchedules", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Invoices").
		Where("customer_id = ?", customer.ID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load projects")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customer": customer,
		"jobs":     jobs,
	})
}

// GetMyEstimates returns the estimates on the customer's originating lead.
func (h *PortalHandler) GetMyEstimates(w http.ResponseWriter, r *http.Request) {
	customer, ok := h.customerFor(r)
	if !ok {
		writeError(w, http.StatusNotFound, "no customer record for this account")
		return
	}
	if customer.LeadID == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"estimates": []models.DetailedEstimate{}, "count": 0})
		return
	}

	var estimates []models.DetailedEstimate
	if err := h.db.Where("lead_id = ?", *customer.LeadID).
		Order("created_at DESC").Find(&estimates).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load estimates")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"estimates": estimates, "count": len(estimates)})
}

// GetMyInvoices returns every invoice across the customer's jobs.
func (h *PortalHandler) GetMyInvoices(w http.ResponseWriter, r *http.Request) {
	customer, ok := h.customerFor(r)
	if !ok {
		writeError(w, http.StatusNotFound, "no customer record for this account")
		return
	}

	var invoices []models.Invoice
	err := h.db.
		Joins("JOIN jobs ON jobs.id = invoices.job_id").
		Where("jobs.customer_id = ?", customer.ID).
		Order("invoices.created_at DESC").
		Find(&invoices).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load invoices")
		return
	}

	var outstanding float64
	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusSent || inv.Status == models.InvoiceStatusOverdue {
			outstanding += inv.Amount
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invoices":    invoices,
		"count":       len(invoices),
		"outstanding": outstanding,
	})
}
