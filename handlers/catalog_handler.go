package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/middleware"
	"p9e.in/roofline/models"
	"p9e.in/roofline/pkg/estimation"
)

// CatalogHandler manages the pricing catalog: line items, macros, geographic
// pricing profiles and billing templates.
type CatalogHandler struct {
	db *gorm.DB
}

func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{db: config.DB}
}

// ---- Line items ----

func (h *CatalogHandler) ListLineItems(w http.ResponseWriter, r *http.Request) {
	query := h.db.Model(&models.LineItem{}).Order("category, code")
	if category := r.URL.Query().Get("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if r.URL.Query().Get("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var items []models.LineItem
	if err := query.Find(&items).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list line items")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"line_items": items, "count": len(items)})
}

func (h *CatalogHandler) CreateLineItem(w http.ResponseWriter, r *http.Request) {
	var item models.LineItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if item.Code == "" || item.Name == "" || item.QuantityFormula == "" {
		writeError(w, http.StatusBadRequest, "code, name and quantity_formula are required")
		return
	}
	if item.WasteFactor != 0 && item.WasteFactor < 1 {
		writeError(w, http.StatusBadRequest, "waste_factor must be >= 1")
		return
	}
	if item.WasteFactor == 0 {
		item.WasteFactor = 1
	}
	// Reject formulas that can never evaluate before they poison estimates.
	if _, err := estimation.EvaluateFormula(item.QuantityFormula, estimation.RoofVariables{}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item.IsActive = true

	if err := h.db.Create(&item).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create line item")
		return
	}
	log.Printf("✅ Created line item %s", item.Code)
	writeJSON(w, http.StatusCreated, item)
}

func (h *CatalogHandler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var item models.LineItem
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "line item not found")
		return
	}

	var req models.LineItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.QuantityFormula != "" {
		if _, err := estimation.EvaluateFormula(req.QuantityFormula, estimation.RoofVariables{}); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		item.QuantityFormula = req.QuantityFormula
	}
	if req.Name != "" {
		item.Name = req.Name
	}
	if req.WasteFactor >= 1 {
		item.WasteFactor = req.WasteFactor
	}
	item.MaterialCost = req.MaterialCost
	item.LaborCost = req.LaborCost
	item.EquipmentCost = req.EquipmentCost
	item.Taxable = req.Taxable

	if err := h.db.Save(&item).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update line item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) DeleteLineItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	// Soft-deactivate: macros may still reference the item historically.
	result := h.db.Model(&models.LineItem{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "failed to deactivate line item")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "line item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "line item deactivated"})
}

// ---- Macros ----

// MacroLineRequest is one line of a create/update macro payload.
type MacroLineRequest struct {
	LineItemID          uuid.UUID `json:"line_item_id"`
	FormulaOverride     *string   `json:"formula_override"`
	WasteOverride       *float64  `json:"waste_override"`
	MaterialOverride    *float64  `json:"material_override"`
	LaborOverride       *float64  `json:"labor_override"`
	EquipmentOverride   *float64  `json:"equipment_override"`
	IsSelectedByDefault *bool     `json:"is_selected_by_default"`
	IsOptional          bool      `json:"is_optional"`
	SortOrder           int       `json:"sort_order"`
	GroupLabel          string    `json:"group_label"`
}

type CreateMacroRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	RoofType    string             `json:"roof_type"`
	Lines       []MacroLineRequest `json:"lines"`
}

func (h *CatalogHandler) ListMacros(w http.ResponseWriter, r *http.Request) {
	var macros []models.Macro
	if err := h.db.Where("is_active = ?", true).Order("usage_count DESC, name").Find(&macros).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list macros")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"macros": macros, "count": len(macros)})
}

func (h *CatalogHandler) GetMacro(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var macro models.Macro
	if err := h.db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Lines.LineItem").
		First(&macro, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "macro not found")
		return
	}
	writeJSON(w, http.StatusOK, macro)
}

func (h *CatalogHandler) CreateMacro(w http.ResponseWriter, r *http.Request) {
	var req CreateMacroRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "name and at least one line are required")
		return
	}
	for _, line := range req.Lines {
		if line.WasteOverride != nil && *line.WasteOverride < 1 {
			writeError(w, http.StatusBadRequest, "waste_override must be >= 1")
			return
		}
		if line.FormulaOverride != nil {
			if _, err := estimation.EvaluateFormula(*line.FormulaOverride, estimation.RoofVariables{}); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
	}

	claims := middleware.GetClaims(r)
	macro := models.Macro{
		Name:        req.Name,
		Description: req.Description,
		RoofType:    req.RoofType,
		IsActive:    true,
		CreatedBy:   claims.UserID,
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&macro).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to create macro")
		return
	}
	for i, line := range req.Lines {
		var item models.LineItem
		if err := tx.First(&item, "id = ?", line.LineItemID).Error; err != nil {
			tx.Rollback()
			writeError(w, http.StatusBadRequest, "line item "+line.LineItemID.String()+" not found")
			return
		}
		selected := true
		if line.IsSelectedByDefault != nil {
			selected = *line.IsSelectedByDefault
		}
		sortOrder := line.SortOrder
		if sortOrder == 0 {
			sortOrder = i + 1
		}
		ml := models.MacroLineItem{
			MacroID:             macro.ID,
			LineItemID:          line.LineItemID,
			FormulaOverride:     line.FormulaOverride,
			WasteOverride:       line.WasteOverride,
			MaterialOverride:    line.MaterialOverride,
			LaborOverride:       line.LaborOverride,
			EquipmentOverride:   line.EquipmentOverride,
			IsSelectedByDefault: selected,
			IsOptional:          line.IsOptional,
			SortOrder:           sortOrder,
			GroupLabel:          line.GroupLabel,
		}
		if err := tx.Create(&ml).Error; err != nil {
			tx.Rollback()
			writeError(w, http.StatusInternalServerError, "failed to create macro line")
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit macro")
		return
	}

	log.Printf("✅ Created macro %q with %d lines", macro.Name, len(req.Lines))
	writeJSON(w, http.StatusCreated, macro)
}

func (h *CatalogHandler) DeleteMacro(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result := h.db.Model(&models.Macro{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "failed to deactivate macro")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "macro not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "macro deactivated"})
}

// ---- Geographic pricing ----

func (h *CatalogHandler) ListGeographicPricing(w http.ResponseWriter, r *http.Request) {
	var profiles []models.GeographicPricing
	if err := h.db.Where("is_active = ?", true).Order("name").Find(&profiles).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pricing profiles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles, "count": len(profiles)})
}

func (h *CatalogHandler) CreateGeographicPricing(w http.ResponseWriter, r *http.Request) {
	var profile models.GeographicPricing
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if profile.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if profile.MaterialMultiplier <= 0 || profile.LaborMultiplier <= 0 || profile.EquipmentMultiplier <= 0 {
		writeError(w, http.StatusBadRequest, "multipliers must be positive")
		return
	}
	profile.IsActive = true
	if err := h.db.Create(&profile).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create pricing profile")
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// ---- Billing templates ----

type BillingTemplateRequest struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Milestones  []estimation.MilestoneSpec `json:"milestones"`
	IsDefault   bool                       `json:"is_default"`
}

func (h *CatalogHandler) ListBillingTemplates(w http.ResponseWriter, r *http.Request) {
	var templates []models.BillingTemplate
	if err := h.db.Where("is_active = ?", true).Order("name").Find(&templates).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list billing templates")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates, "count": len(templates)})
}

func (h *CatalogHandler) CreateBillingTemplate(w http.ResponseWriter, r *http.Request) {
	var req BillingTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || len(req.Milestones) == 0 {
		writeError(w, http.StatusBadRequest, "name and milestones are required")
		return
	}
	validStatus := make(map[string]bool, len(models.ValidJobStatuses))
	for _, s := range models.ValidJobStatuses {
		validStatus[string(s)] = true
	}
	for _, m := range req.Milestones {
		if m.Name == "" || m.Percentage < 0 {
			writeError(w, http.StatusBadRequest, "each milestone needs a name and non-negative percentage")
			return
		}
		if !validStatus[m.TriggerStatus] {
			writeError(w, http.StatusBadRequest, "unknown trigger_status "+m.TriggerStatus)
			return
		}
	}

	raw, err := json.Marshal(req.Milestones)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode milestones")
		return
	}
	template := models.BillingTemplate{
		Name:        req.Name,
		Description: req.Description,
		Milestones:  raw,
		IsDefault:   req.IsDefault,
		IsActive:    true,
	}
	if err := h.db.Create(&template).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create billing template")
		return
	}
	log.Printf("✅ Created billing template %q", template.Name)
	writeJSON(w, http.StatusCreated, template)
}
