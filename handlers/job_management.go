package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/middleware"
	"p9e.in/roofline/models"
	"p9e.in/roofline/pkg/estimation"
)

// JobHandler manages sold projects: creation from an accepted estimate,
// scheduling, crew assignment and the status transitions that drive billing.
type JobHandler struct {
	db            *gorm.DB
	billing       *BillingService
	notifications *NotificationService
}

func NewJobHandler() *JobHandler {
	return &JobHandler{
		db:            config.DB,
		billing:       NewBillingService(),
		notifications: NewNotificationService(),
	}
}

// jobTransitions defines the allowed moves from each status. closed and
// cancelled are terminal.
var jobTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusScheduled:             {models.JobStatusMaterialsOrdered, models.JobStatusInProgress, models.JobStatusCancelled},
	models.JobStatusMaterialsOrdered:      {models.JobStatusInProgress, models.JobStatusCancelled},
	models.JobStatusInProgress:            {models.JobStatusSubstantiallyComplete, models.JobStatusCompleted, models.JobStatusCancelled},
	models.JobStatusSubstantiallyComplete: {models.JobStatusCompleted, models.JobStatusCancelled},
	models.JobStatusCompleted:             {models.JobStatusClosed},
}

// CreateJobRequest turns an accepted estimate into a job.
type CreateJobRequest struct {
	EstimateID        uuid.UUID  `json:"estimate_id"`
	BillingTemplateID *uuid.UUID `json:"billing_template_id,omitempty"`
	ScheduledStart    *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd      *time.Time `json:"scheduled_end,omitempty"`
	CrewID            *uuid.UUID `json:"crew_id,omitempty"`
}

func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.EstimateID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "estimate_id is required")
		return
	}

	var estimate models.DetailedEstimate
	if err := h.db.Preload("Lead").First(&estimate, "id = ?", req.EstimateID).Error; err != nil {
		writeError(w, http.StatusNotFound, "estimate not found")
		return
	}
	if estimate.Status != models.EstimateStatusAccepted {
		writeDomainError(w, &estimation.ConflictError{Resource: "estimate", Message: "only accepted estimates become jobs"})
		return
	}

	var existingCount int64
	if err := h.db.Model(&models.Job{}).Where("estimate_id = ?", estimate.ID).Count(&existingCount).Error; err == nil && existingCount > 0 {
		writeDomainError(w, &estimation.ConflictError{Resource: "job", Message: "estimate already has a job"})
		return
	}

	template, err := h.resolveBillingTemplate(req.BillingTemplateID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var customerID *uuid.UUID
	var customer models.Customer
	if err := h.db.Where("lead_id = ?", estimate.LeadID).First(&customer).Error; err == nil {
		customerID = &customer.ID
	}

	job := models.Job{
		JobNumber:      h.nextJobNumber(),
		LeadID:         estimate.LeadID,
		CustomerID:     customerID,
		EstimateID:     &estimate.ID,
		Status:         models.JobStatusScheduled,
		ContractAmount: estimate.PriceLikely,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		CrewID:         req.CrewID,
		CreatedBy:      middleware.GetUserID(r),
	}

	tx := h.db.Begin()
	if err := tx.Create(&job).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}
	job.Lead = estimate.Lead // billing trigger notifies the homeowner
	if err := h.billing.ApplyTemplate(tx, &job, template); err != nil {
		tx.Rollback()
		writeDomainError(w, err)
		return
	}
	// Creation lands in scheduled, so the deposit milestone invoices now.
	if err := h.billing.HandleStatusChange(tx, &job, models.JobStatusScheduled); err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to run billing trigger")
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit job")
		return
	}

	if estimate.Lead != nil {
		h.notifications.NotifyJobScheduled(estimate.Lead, &job)
	}
	log.Printf("✅ Created job %s from estimate %s ($%.2f)", job.JobNumber, estimate.ID, job.ContractAmount)
	writeJSON(w, http.StatusCreated, job)
}

func (h *JobHandler) resolveBillingTemplate(id *uuid.UUID) (*models.BillingTemplate, error) {
	var template models.BillingTemplate
	query := h.db.Where("is_active = ?", true)
	if id != nil {
		query = query.Where("id = ?", *id)
	} else {
		query = query.Where("is_default = ?", true)
	}
	if err := query.First(&template).Error; err != nil {
		return nil, &estimation.NotFoundError{Resource: "billing_template", ID: "default"}
	}
	return &template, nil
}

// nextJobNumber issues JOB-<year>-<seq>. The unique index on job_number
// backstops races.
func (h *JobHandler) nextJobNumber() string {
	year := time.Now().Year()
	var count int64
	h.db.Model(&models.Job{}).
		Where("job_number LIKE ?", fmt.Sprintf("JOB-%d-%%", year)).
		Count(&count)
	return fmt.Sprintf("JOB-%d-%04d", year, count+1)
}

func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := h.db.Model(&models.Job{}).Preload("Lead").Preload("Crew").Order("created_at DESC")
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if crewID := r.URL.Query().Get("crew_id"); crewID != "" {
		query = query.Where("crew_id = ?", crewID)
	}

	var jobs []models.Job
	if err := query.Find(&jobs).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs, "count": len(jobs)})
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var job models.Job
	err := h.db.
		Preload("Lead").
		Preload("Crew").
		Preload("BillingSchedules", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("BillingSchedules.Invoice").
		Preload("Invoices").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		First(&job, "id = ?", id).Error
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// TransitionJobRequest moves a job through its lifecycle.
type TransitionJobRequest struct {
	Status  models.JobStatus `json:"status"`
	Comment string           `json:"comment,omitempty"`
}

// TransitionJob validates the move, records the audit event and runs the
// billing trigger, all in one transaction.
func (h *JobHandler) TransitionJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req TransitionJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var job models.Job
	if err := h.db.Preload("Lead").First(&job, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	allowed := false
	for _, next := range jobTransitions[job.Status] {
		if next == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		writeDomainError(w, &estimation.ConflictError{
			Resource: "job",
			Message:  fmt.Sprintf("cannot move from %s to %s", job.Status, req.Status),
		})
		return
	}

	userID := middleware.GetUserID(r)
	now := time.Now()

	tx := h.db.Begin()
	updates := map[string]interface{}{"status": req.Status, "updated_by": userID}
	if req.Status == models.JobStatusCompleted {
		updates["completed_at"] = now
	}
	result := tx.Model(&models.Job{}).Where("id = ? AND status = ?", job.ID, job.Status).Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update job")
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		writeDomainError(w, &estimation.ConflictError{Resource: "job", Message: "job status changed concurrently"})
		return
	}

	event := models.JobStatusEvent{
		JobID:      job.ID,
		FromStatus: job.Status,
		ToStatus:   req.Status,
		ChangedBy:  userID,
		Comment:    req.Comment,
	}
	if err := tx.Create(&event).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to record status event")
		return
	}
	if err := h.billing.HandleStatusChange(tx, &job, req.Status); err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to run billing trigger")
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transition")
		return
	}

	log.Printf("✅ Job %s moved %s → %s by %s", job.JobNumber, job.Status, req.Status, userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": job.ID,
		"status": req.Status,
	})
}

// UpdateContractRequest changes the contract amount, typically after a change
// order. The billing schedule reprices except for invoiced milestones.
type UpdateContractRequest struct {
	ContractAmount float64 `json:"contract_amount"`
}

func (h *JobHandler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ContractAmount < 0 {
		writeError(w, http.StatusBadRequest, "contract_amount must be non-negative")
		return
	}

	var job models.Job
	if err := h.db.First(&job, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	tx := h.db.Begin()
	if err := tx.Model(&job).Updates(map[string]interface{}{
		"contract_amount": req.ContractAmount,
		"updated_by":      middleware.GetUserID(r),
	}).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update contract")
		return
	}
	if err := h.billing.Recalculate(tx, &job, req.ContractAmount); err != nil {
		tx.Rollback()
		writeDomainError(w, err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit contract change")
		return
	}

	log.Printf("✅ Job %s contract updated to $%.2f", job.JobNumber, req.ContractAmount)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":          job.ID,
		"contract_amount": req.ContractAmount,
	})
}

// AssignCrewRequest puts a crew on the job.
type AssignCrewRequest struct {
	CrewID uuid.UUID `json:"crew_id"`
}

func (h *JobHandler) AssignCrew(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req AssignCrewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var crew models.Crew
	if err := h.db.First(&crew, "id = ? AND is_active = ?", req.CrewID, true).Error; err != nil {
		writeError(w, http.StatusNotFound, "crew not found")
		return
	}

	result := h.db.Model(&models.Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"crew_id":    crew.ID,
		"updated_by": middleware.GetUserID(r),
	})
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "failed to assign crew")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "crew assigned", "crew": crew.Name})
}
