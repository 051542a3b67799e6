package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/models"
)

// CrewHandler manages installation crews and their rosters.
type CrewHandler struct {
	db *gorm.DB
}

func NewCrewHandler() *CrewHandler {
	return &CrewHandler{db: config.DB}
}

func (h *CrewHandler) ListCrews(w http.ResponseWriter, r *http.Request) {
	query := h.db.Model(&models.Crew{}).Preload("Foreman").Order("name")
	if r.URL.Query().Get("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if specialty := r.URL.Query().Get("specialty"); specialty != "" {
		query = query.Where("specialty = ?", specialty)
	}

	var crews []models.Crew
	if err := query.Find(&crews).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list crews")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"crews": crews, "count": len(crews)})
}

func (h *CrewHandler) GetCrew(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var crew models.Crew
	if err := h.db.Preload("Foreman").Preload("Members").Preload("Members.User").
		First(&crew, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "crew not found")
		return
	}

	// Active workload for scheduling decisions.
	var activeJobs int64
	h.db.Model(&models.Job{}).
		Where("crew_id = ? AND status IN ?", crew.ID,
			[]models.JobStatus{models.JobStatusScheduled, models.JobStatusMaterialsOrdered, models.JobStatusInProgress}).
		Count(&activeJobs)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"crew":        crew,
		"active_jobs": activeJobs,
	})
}

type CreateCrewRequest struct {
	Name       string     `json:"name"`
	ForemanID  *uuid.UUID `json:"foreman_id,omitempty"`
	Specialty  string     `json:"specialty,omitempty"`
	MaxSquares float64    `json:"max_squares,omitempty"`
}

func (h *CrewHandler) CreateCrew(w http.ResponseWriter, r *http.Request) {
	var req CreateCrewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ForemanID != nil {
		var foreman models.User
		if err := h.db.First(&foreman, "id = ?", *req.ForemanID).Error; err != nil {
			writeError(w, http.StatusBadRequest, "foreman user not found")
			return
		}
	}

	crew := models.Crew{
		Name:       req.Name,
		ForemanID:  req.ForemanID,
		Specialty:  req.Specialty,
		MaxSquares: req.MaxSquares,
		IsActive:   true,
	}
	if err := h.db.Create(&crew).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create crew")
		return
	}
	log.Printf("✅ Created crew %q", crew.Name)
	writeJSON(w, http.StatusCreated, crew)
}

type AddCrewMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role,omitempty"`
}

func (h *CrewHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	crewID := mux.Vars(r)["id"]

	var crew models.Crew
	if err := h.db.First(&crew, "id = ?", crewID).Error; err != nil {
		writeError(w, http.StatusNotFound, "crew not found")
		return
	}

	var req AddCrewMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	var user models.User
	if err := h.db.First(&user, "id = ?", req.UserID).Error; err != nil {
		writeError(w, http.StatusBadRequest, "user not found")
		return
	}

	var existing int64
	h.db.Model(&models.CrewMember{}).
		Where("crew_id = ? AND user_id = ?", crew.ID, req.UserID).Count(&existing)
	if existing > 0 {
		writeError(w, http.StatusConflict, "user is already on this crew")
		return
	}

	role := req.Role
	if role == "" {
		role = "installer"
	}
	member := models.CrewMember{CrewID: crew.ID, UserID: req.UserID, Role: role}
	if err := h.db.Create(&member).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add crew member")
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *CrewHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	result := h.db.Where("crew_id = ? AND user_id = ?", vars["id"], vars["user_id"]).
		Delete(&models.CrewMember{})
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove crew member")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "crew member not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "crew member removed"})
}
