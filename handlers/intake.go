package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/models"
	"p9e.in/roofline/utils"
)

// IntakeHandler serves the public customer-intake funnel. No authentication:
// these endpoints sit behind the marketing site's quote form.
type IntakeHandler struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewIntakeHandler() *IntakeHandler {
	return &IntakeHandler{
		db:            config.DB,
		notifications: NewNotificationService(),
	}
}

// IntakeRequest is the quote-form payload.
type IntakeRequest struct {
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	AddressLine1  string          `json:"address_line1"`
	AddressLine2  string          `json:"address_line2"`
	City          string          `json:"city"`
	State         string          `json:"state"`
	Zip           string          `json:"zip"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
	ProjectType   string          `json:"project_type"`
	Source        string          `json:"source"`
	Notes         string          `json:"notes"`
	IntakeAnswers json.RawMessage `json:"intake_answers"`
}

// SubmitIntake creates a lead from the public quote form and checks the
// property against the active service territories.
func (h *IntakeHandler) SubmitIntake(w http.ResponseWriter, r *http.Request) {
	var req IntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "first_name, last_name and phone are required")
		return
	}
	if req.AddressLine1 == "" || req.City == "" || req.State == "" || req.Zip == "" {
		writeError(w, http.StatusBadRequest, "full property address is required")
		return
	}
	if err := utils.ValidateCoordinate(req.Latitude, req.Longitude); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	territory, inArea := h.checkServiceArea(req.Latitude, req.Longitude)

	source := req.Source
	if source == "" {
		source = "website"
	}
	answers := req.IntakeAnswers
	if len(answers) == 0 {
		answers = json.RawMessage("{}")
	}

	lead := models.Lead{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		AddressLine1:  req.AddressLine1,
		AddressLine2:  req.AddressLine2,
		City:          req.City,
		State:         req.State,
		Zip:           req.Zip,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Source:        source,
		Status:        models.LeadStatusNew,
		ProjectType:   req.ProjectType,
		Notes:         req.Notes,
		InServiceArea: inArea,
		IntakeAnswers: []byte(answers),
	}
	if err := h.db.Create(&lead).Error; err != nil {
		log.Printf("❌ Failed to create intake lead: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create lead")
		return
	}

	h.notifications.NotifyLeadCreated(&lead)
	log.Printf("✅ Intake lead %s created (%s, in_service_area=%v)", lead.ID, lead.Zip, inArea)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"lead_id":         lead.ID,
		"in_service_area": inArea,
		"territory":       territory,
	})
}

// checkServiceArea tests a geocoded point against every active territory.
// Ungeocoded submissions (0,0) pass: the office qualifies them by hand.
func (h *IntakeHandler) checkServiceArea(lat, lng float64) (string, bool) {
	if lat == 0 && lng == 0 {
		return "", true
	}

	var territories []models.ServiceTerritory
	if err := h.db.Where("is_active = ?", true).Order("name ASC").Find(&territories).Error; err != nil {
		log.Printf("⚠️  Territory lookup failed, admitting lead: %v", err)
		return "", true
	}
	if len(territories) == 0 {
		return "", true
	}

	boundaries := make([]utils.NamedBoundary, 0, len(territories))
	for _, t := range territories {
		boundaries = append(boundaries, utils.NamedBoundary{Name: t.Name, Boundary: json.RawMessage(t.Boundary)})
	}
	name := utils.TerritoryFromCoordinates(boundaries, lat, lng)
	return name, name != ""
}
