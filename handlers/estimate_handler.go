package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/middleware"
	"p9e.in/roofline/models"
	"p9e.in/roofline/pkg/estimation"
)

const defaultEstimateValidDays = 30

// EstimateHandler prices macros against variable snapshots and manages the
// estimate lifecycle (draft, accepted, rejected, expired).
type EstimateHandler struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewEstimateHandler() *EstimateHandler {
	return &EstimateHandler{
		db:            config.DB,
		notifications: NewNotificationService(),
	}
}

// CreateEstimateRequest builds an estimate for a lead. Variables come either
// inline or from a stored measurement. Selections toggles optional macro lines
// by catalog code.
type CreateEstimateRequest struct {
	MacroID             uuid.UUID                 `json:"macro_id"`
	MeasurementID       *uuid.UUID                `json:"measurement_id,omitempty"`
	Variables           *estimation.RoofVariables `json:"variables,omitempty"`
	GeographicPricingID *uuid.UUID                `json:"geographic_pricing_id,omitempty"`
	OverheadPct         *float64                  `json:"overhead_pct,omitempty"`
	ProfitPct           *float64                  `json:"profit_pct,omitempty"`
	TaxPct              *float64                  `json:"tax_pct,omitempty"`
	Selections          map[string]bool           `json:"selections,omitempty"`
	ValidDays           int                       `json:"valid_days,omitempty"`
}

func (h *EstimateHandler) CreateEstimate(w http.ResponseWriter, r *http.Request) {
	leadID := mux.Vars(r)["lead_id"]

	var lead models.Lead
	if err := h.db.First(&lead, "id = ?", leadID).Error; err != nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}

	var req CreateEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MacroID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "macro_id is required")
		return
	}

	vars, err := h.resolveVariables(&lead, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := vars.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	snapshot, err := h.loadMacroSnapshot(req.MacroID, req.Selections)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	geo, geoID := h.resolveGeoMultipliers(req.GeographicPricingID)
	pct := estimation.Percentages{Overhead: 10, Profit: 10, Tax: 0}
	if req.OverheadPct != nil {
		pct.Overhead = *req.OverheadPct
	}
	if req.ProfitPct != nil {
		pct.Profit = *req.ProfitPct
	}
	if req.TaxPct != nil {
		pct.Tax = *req.TaxPct
	}

	priced := estimation.ApplyMacro(snapshot, vars, geo, pct)

	varsJSON, err := json.Marshal(vars)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode variables")
		return
	}
	linesJSON, err := json.Marshal(priced.Lines)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode lines")
		return
	}
	warningsJSON, _ := json.Marshal(priced.Warnings)

	validDays := req.ValidDays
	if validDays <= 0 {
		validDays = defaultEstimateValidDays
	}
	validUntil := time.Now().AddDate(0, 0, validDays)

	estimate := models.DetailedEstimate{
		LeadID:              lead.ID,
		MacroID:             req.MacroID,
		GeographicPricingID: geoID,
		Status:              models.EstimateStatusDraft,
		ValidUntil:          &validUntil,
		Variables:           varsJSON,
		Lines:               linesJSON,
		Warnings:            warningsJSON,
		MaterialTotal:       priced.MaterialTotal,
		LaborTotal:          priced.LaborTotal,
		EquipmentTotal:      priced.EquipmentTotal,
		Subtotal:            priced.Subtotal,
		OverheadPct:         priced.OverheadPct,
		OverheadAmount:      priced.OverheadAmount,
		ProfitPct:           priced.ProfitPct,
		ProfitAmount:        priced.ProfitAmount,
		TaxPct:              priced.TaxPct,
		TaxableAmount:       priced.TaxableAmount,
		TaxAmount:           priced.TaxAmount,
		PriceLow:            priced.PriceLow,
		PriceLikely:         priced.PriceLikely,
		PriceHigh:           priced.PriceHigh,
		CreatedBy:           middleware.GetUserID(r),
	}

	tx := h.db.Begin()
	if err := tx.Create(&estimate).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to save estimate")
		return
	}
	if err := tx.Model(&models.Macro{}).Where("id = ?", req.MacroID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update macro usage")
		return
	}
	// Estimating advances the pipeline for any pre-estimate status.
	switch lead.Status {
	case models.LeadStatusNew, models.LeadStatusContacted, models.LeadStatusInspectionScheduled:
		if err := tx.Model(&lead).Update("status", models.LeadStatusEstimated).Error; err != nil {
			tx.Rollback()
			writeError(w, http.StatusInternalServerError, "failed to update lead status")
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit estimate")
		return
	}

	h.notifications.NotifyEstimateSent(&lead, priced.PriceLikely)
	log.Printf("✅ Created estimate %s for lead %s (likely $%.2f, %d warnings)",
		estimate.ID, lead.ID, priced.PriceLikely, len(priced.Warnings))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"estimate": estimate,
		"priced":   priced,
	})
}

// resolveVariables takes the inline vector when present, otherwise falls back
// to the named measurement, otherwise the lead's most recent one.
func (h *EstimateHandler) resolveVariables(lead *models.Lead, req *CreateEstimateRequest) (estimation.RoofVariables, error) {
	if req.Variables != nil {
		return *req.Variables, nil
	}

	var measurement models.RoofMeasurement
	query := h.db.Where("lead_id = ?", lead.ID)
	if req.MeasurementID != nil {
		query = query.Where("id = ?", *req.MeasurementID)
	}
	if err := query.Order("created_at DESC").First(&measurement).Error; err != nil {
		return estimation.RoofVariables{}, &estimation.NotFoundError{Resource: "measurement", ID: lead.ID.String()}
	}
	if len(measurement.Variables) == 0 {
		return estimation.RoofVariables{}, &estimation.ValidationError{Field: "variables", Message: "measurement has no variable vector"}
	}
	var vars estimation.RoofVariables
	if err := json.Unmarshal(measurement.Variables, &vars); err != nil {
		return estimation.RoofVariables{}, &estimation.ValidationError{Field: "variables", Message: "stored variables are unreadable"}
	}
	return vars, nil
}

// loadMacroSnapshot inflates a stored macro into the immutable value the
// pricing core consumes. Selections override per-line inclusion by code;
// non-optional lines ignore deselection.
func (h *EstimateHandler) loadMacroSnapshot(macroID uuid.UUID, selections map[string]bool) (estimation.MacroSnapshot, error) {
	var macro models.Macro
	err := h.db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Lines.LineItem").
		First(&macro, "id = ? AND is_active = ?", macroID, true).Error
	if err != nil {
		return estimation.MacroSnapshot{}, &estimation.NotFoundError{Resource: "macro", ID: macroID.String()}
	}

	snapshot := estimation.MacroSnapshot{
		Name:  macro.Name,
		Lines: make([]estimation.MacroLine, 0, len(macro.Lines)),
	}
	for _, line := range macro.Lines {
		if line.LineItem == nil {
			continue
		}
		included := line.IsSelectedByDefault
		if sel, ok := selections[line.LineItem.Code]; ok && line.IsOptional {
			included = sel
		}
		snapshot.Lines = append(snapshot.Lines, estimation.MacroLine{
			Item: estimation.CatalogItem{
				Code:            line.LineItem.Code,
				Name:            line.LineItem.Name,
				Category:        line.LineItem.Category,
				Unit:            line.LineItem.Unit,
				QuantityFormula: line.LineItem.QuantityFormula,
				WasteFactor:     line.LineItem.WasteFactor,
				MaterialCost:    line.LineItem.MaterialCost,
				LaborCost:       line.LineItem.LaborCost,
				EquipmentCost:   line.LineItem.EquipmentCost,
				Taxable:         line.LineItem.Taxable,
			},
			FormulaOverride:   line.FormulaOverride,
			WasteOverride:     line.WasteOverride,
			MaterialOverride:  line.MaterialOverride,
			LaborOverride:     line.LaborOverride,
			EquipmentOverride: line.EquipmentOverride,
			Included:          included,
			Optional:          line.IsOptional,
			SortOrder:         line.SortOrder,
			GroupLabel:        line.GroupLabel,
		})
	}
	if len(snapshot.Lines) == 0 {
		return estimation.MacroSnapshot{}, &estimation.ValidationError{Field: "macro_id", Message: "macro has no usable lines"}
	}
	return snapshot, nil
}

func (h *EstimateHandler) resolveGeoMultipliers(id *uuid.UUID) (estimation.GeoMultipliers, *uuid.UUID) {
	var profile models.GeographicPricing
	query := h.db.Where("is_active = ?", true)
	if id != nil {
		query = query.Where("id = ?", *id)
	} else {
		query = query.Where("name = ?", "Default Market")
	}
	if err := query.First(&profile).Error; err != nil {
		// Zero value means all factors 1 downstream.
		return estimation.GeoMultipliers{}, nil
	}
	return estimation.GeoMultipliers{
		Material:  profile.MaterialMultiplier,
		Labor:     profile.LaborMultiplier,
		Equipment: profile.EquipmentMultiplier,
	}, &profile.ID
}

func (h *EstimateHandler) ListEstimates(w http.ResponseWriter, r *http.Request) {
	leadID := mux.Vars(r)["lead_id"]
	var estimates []models.DetailedEstimate
	if err := h.db.Where("lead_id = ?", leadID).Order("created_at DESC").Find(&estimates).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list estimates")
		return
	}
	now := time.Now()
	for i := range estimates {
		h.expireIfLapsed(&estimates[i], now)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"estimates": estimates, "count": len(estimates)})
}

func (h *EstimateHandler) GetEstimate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var estimate models.DetailedEstimate
	if err := h.db.Preload("Lead").First(&estimate, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "estimate not found")
		return
	}
	h.expireIfLapsed(&estimate, time.Now())
	writeJSON(w, http.StatusOK, estimate)
}

// expireIfLapsed flips a lapsed draft to expired. Evaluated at read and
// respond time; there is no background sweep.
func (h *EstimateHandler) expireIfLapsed(estimate *models.DetailedEstimate, now time.Time) {
	if estimate.Status != models.EstimateStatusDraft || !estimate.IsExpired(now) {
		return
	}
	result := h.db.Model(&models.DetailedEstimate{}).
		Where("id = ? AND status = ?", estimate.ID, models.EstimateStatusDraft).
		Update("status", models.EstimateStatusExpired)
	if result.Error == nil && result.RowsAffected > 0 {
		estimate.Status = models.EstimateStatusExpired
	}
}

// RespondEstimateRequest records the customer's decision.
type RespondEstimateRequest struct {
	Action string `json:"action"` // accept or reject
}

// RespondEstimate applies accept/reject with a conditional update so two
// concurrent responses cannot both win. Zero rows affected means the estimate
// already reached a terminal status.
func (h *EstimateHandler) RespondEstimate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req RespondEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	var target models.EstimateStatus
	switch req.Action {
	case "accept":
		target = models.EstimateStatusAccepted
	case "reject":
		target = models.EstimateStatusRejected
	default:
		writeError(w, http.StatusBadRequest, "action must be accept or reject")
		return
	}

	var estimate models.DetailedEstimate
	if err := h.db.Preload("Lead").First(&estimate, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "estimate not found")
		return
	}

	now := time.Now()
	h.expireIfLapsed(&estimate, now)
	if estimate.Status == models.EstimateStatusExpired {
		writeDomainError(w, &estimation.ConflictError{Resource: "estimate", Message: "estimate has expired"})
		return
	}

	result := h.db.Model(&models.DetailedEstimate{}).
		Where("id = ? AND status NOT IN ?", estimate.ID, models.TerminalEstimateStatuses).
		Updates(map[string]interface{}{
			"status":       target,
			"responded_at": now,
			"responded_by": middleware.GetUserID(r),
		})
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "failed to update estimate")
		return
	}
	if result.RowsAffected == 0 {
		writeDomainError(w, &estimation.ConflictError{Resource: "estimate", Message: "estimate already responded to"})
		return
	}

	if target == models.EstimateStatusAccepted && estimate.Lead != nil {
		if err := h.db.Model(estimate.Lead).Update("status", models.LeadStatusWon).Error; err != nil {
			log.Printf("⚠️  Failed to mark lead %s won: %v", estimate.LeadID, err)
		}
		ensureCustomer(h.db, estimate.Lead)
		h.notifications.NotifyEstimateAccepted(estimate.Lead, estimate.PriceLikely)
	}

	log.Printf("✅ Estimate %s %sed", estimate.ID, req.Action)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"estimate_id": estimate.ID,
		"status":      target,
	})
}

// ExportEstimate renders the estimate as a spreadsheet for the back office.
func (h *EstimateHandler) ExportEstimate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var estimate models.DetailedEstimate
	if err := h.db.Preload("Lead").Preload("Macro").First(&estimate, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "estimate not found")
		return
	}
	var lines []estimation.PricedLine
	if err := json.Unmarshal(estimate.Lines, &lines); err != nil {
		writeError(w, http.StatusInternalServerError, "stored lines are unreadable")
		return
	}

	f := excelize.NewFile()
	sheet := "Estimate"
	index, err := f.NewSheet(sheet)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create sheet")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	title := "Roofing Estimate"
	if estimate.Lead != nil {
		title = fmt.Sprintf("Roofing Estimate - %s %s", estimate.Lead.FirstName, estimate.Lead.LastName)
	}
	f.SetCellValue(sheet, "A1", title)
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	f.SetRowHeight(sheet, 1, 30)
	if estimate.Lead != nil {
		f.SetCellValue(sheet, "A2", fmt.Sprintf("%s, %s, %s %s",
			estimate.Lead.AddressLine1, estimate.Lead.City, estimate.Lead.State, estimate.Lead.Zip))
	}
	f.SetCellValue(sheet, "A3", fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	headers := []string{"Code", "Description", "Unit", "Qty", "Qty+Waste", "Material", "Labor", "Equipment", "Line Total"}
	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 5)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	f.SetColWidth(sheet, "B", "B", 40)

	row := 6
	for _, line := range lines {
		if !line.Included {
			continue
		}
		values := []interface{}{
			line.Code, line.Name, line.Unit,
			line.Quantity, line.QuantityWithWaste,
			line.MaterialTotal, line.LaborTotal, line.EquipmentTotal, line.LineTotal,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	row++
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
	})
	summary := []struct {
		label string
		value float64
	}{
		{"Subtotal", estimate.Subtotal},
		{fmt.Sprintf("Overhead (%.1f%%)", estimate.OverheadPct), estimate.OverheadAmount},
		{fmt.Sprintf("Profit (%.1f%%)", estimate.ProfitPct), estimate.ProfitAmount},
		{fmt.Sprintf("Tax (%.2f%%)", estimate.TaxPct), estimate.TaxAmount},
		{"Price (Low)", estimate.PriceLow},
		{"Price (Likely)", estimate.PriceLikely},
		{"Price (High)", estimate.PriceHigh},
	}
	for _, s := range summary {
		labelCell, _ := excelize.CoordinatesToCellName(8, row)
		valueCell, _ := excelize.CoordinatesToCellName(9, row)
		f.SetCellValue(sheet, labelCell, s.label)
		f.SetCellValue(sheet, valueCell, s.value)
		f.SetCellStyle(sheet, labelCell, valueCell, summaryStyle)
		row++
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write Excel file")
		return
	}
	filename := fmt.Sprintf("estimate_%s_%s.xlsx", estimate.ID, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}
