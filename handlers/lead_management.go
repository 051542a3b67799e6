package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/middleware"
	"p9e.in/roofline/models"
)

// LeadHandler handles back-office lead management
type LeadHandler struct {
	db *gorm.DB
}

func NewLeadHandler() *LeadHandler {
	return &LeadHandler{db: config.DB}
}

// leadTransitions defines which pipeline moves are allowed from each status.
var leadTransitions = map[models.LeadStatus][]models.LeadStatus{
	models.LeadStatusNew:                 {models.LeadStatusContacted, models.LeadStatusLost},
	models.LeadStatusContacted:           {models.LeadStatusInspectionScheduled, models.LeadStatusLost},
	models.LeadStatusInspectionScheduled: {models.LeadStatusEstimated, models.LeadStatusLost},
	models.LeadStatusEstimated:           {models.LeadStatusWon, models.LeadStatusLost},
}

// ListLeads lists leads with optional status/assignee/zip filters.
func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	query := h.db.Model(&models.Lead{}).Preload("AssignedTo").Order("created_at DESC")

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if assignee := r.URL.Query().Get("assigned_to"); assignee != "" {
		query = query.Where("assigned_to_id = ?", assignee)
	}
	if zip := r.URL.Query().Get("zip"); zip != "" {
		query = query.Where("zip = ?", zip)
	}

	var leads []models.Lead
	if err := query.Limit(200).Find(&leads).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leads": leads, "count": len(leads)})
}

// GetLead returns one lead with its estimates and measurements.
func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var lead models.Lead
	if err := h.db.
		Preload("AssignedTo").
		Preload("Estimates", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Measurements").
		Preload("Photos").
		First(&lead, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// UpdateLeadRequest carries editable lead fields.
type UpdateLeadRequest struct {
	Email         *string            `json:"email"`
	Phone         *string            `json:"phone"`
	ProjectType   *string            `json:"project_type"`
	Notes         *string            `json:"notes"`
	AppointmentAt *models.JSONTime   `json:"appointment_at"`
	Status        *models.LeadStatus `json:"status"`
}

// UpdateLead edits contact/schedule fields and optionally moves the lead
// through the pipeline.
func (h *LeadHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var lead models.Lead
	if err := h.db.First(&lead, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}

	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.ProjectType != nil {
		lead.ProjectType = *req.ProjectType
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}
	if req.AppointmentAt != nil {
		lead.AppointmentAt = req.AppointmentAt
		if lead.Status == models.LeadStatusContacted {
			lead.Status = models.LeadStatusInspectionScheduled
		}
	}
	if req.Status != nil && *req.Status != lead.Status {
		allowed := leadTransitions[lead.Status]
		if !slices.Contains(allowed, *req.Status) {
			writeError(w, http.StatusBadRequest, "invalid status transition")
			return
		}
		lead.Status = *req.Status
	}

	if err := h.db.Save(&lead).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update lead")
		return
	}

	// Winning a lead creates the customer record the portal hangs off.
	if lead.Status == models.LeadStatusWon {
		ensureCustomer(h.db, &lead)
	}

	writeJSON(w, http.StatusOK, lead)
}

// AssignLead assigns a lead to an estimator.
func (h *LeadHandler) AssignLead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", req.UserID).Error; err != nil {
		writeError(w, http.StatusBadRequest, "user not found")
		return
	}

	result := h.db.Model(&models.Lead{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"assigned_to_id": req.UserID, "updated_at": time.Now()})
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "failed to assign lead")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}

	claims := middleware.GetClaims(r)
	log.Printf("✅ Lead %s assigned to %s by %s", id, user.Name, claims.Name)
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "lead assigned", "assigned_to": user.Name})
}

// ensureCustomer creates the customer record for a won lead exactly once.
func ensureCustomer(db *gorm.DB, lead *models.Lead) {
	var existing models.Customer
	err := db.Where("lead_id = ?", lead.ID).First(&existing).Error
	if err == nil {
		return
	}
	if err != gorm.ErrRecordNotFound {
		log.Printf("⚠️  Customer lookup for lead %s failed: %v", lead.ID, err)
		return
	}
	customer := models.Customer{
		LeadID:    &lead.ID,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Email:     lead.Email,
		Phone:     lead.Phone,
	}
	if err := db.Create(&customer).Error; err != nil {
		log.Printf("⚠️  Failed to create customer for won lead %s: %v", lead.ID, err)
		return
	}
	log.Printf("✅ Created customer %s for won lead %s", customer.ID, lead.ID)
}
