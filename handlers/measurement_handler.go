package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/middleware"
	"p9e.in/roofline/models"
	"p9e.in/roofline/pkg/estimation"
)

const photoUploadDir = "./uploads/roof_photos"

// MeasurementHandler takes per-photo analysis results, merges them into one
// consolidated measurement per lead, and serves the result.
type MeasurementHandler struct {
	db *gorm.DB
}

func NewMeasurementHandler() *MeasurementHandler {
	return &MeasurementHandler{db: config.DB}
}

// UploadPhoto stores a roof photo on local disk and records it against the
// lead. The analysis step reads photos back by file path.
func (h *MeasurementHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	leadID := mux.Vars(r)["lead_id"]

	var lead models.Lead
	if err := h.db.First(&lead, "id = ?", leadID).Error; err != nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}

	if err := os.MkdirAll(photoUploadDir, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create upload directory")
		return
	}
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("%s-%s", timestamp, header.Filename)
	destPath := filepath.Join(photoUploadDir, filename)

	dst, err := os.Create(destPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create file")
		return
	}
	defer dst.Close()
	size, err := io.Copy(dst, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	photo := models.RoofPhoto{
		LeadID:     lead.ID,
		FileName:   header.Filename,
		FilePath:   destPath,
		SizeBytes:  size,
		UploadedBy: middleware.GetUserID(r),
	}
	if err := h.db.Create(&photo).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record photo")
		return
	}

	log.Printf("✅ Uploaded photo %s for lead %s (%d bytes)", header.Filename, leadID, size)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"photo_id": photo.ID,
		"url":      fmt.Sprintf("/uploads/roof_photos/%s", filename),
	})
}

// SubmitMeasurementsRequest carries the per-photo analysis results to merge.
type SubmitMeasurementsRequest struct {
	Results []estimation.PhotoMeasurementResult `json:"results"`
}

// SubmitMeasurements merges the per-photo results and persists the
// consolidated measurement. Per-photo results are not stored.
func (h *MeasurementHandler) SubmitMeasurements(w http.ResponseWriter, r *http.Request) {
	leadID := mux.Vars(r)["lead_id"]

	var lead models.Lead
	if err := h.db.First(&lead, "id = ?", leadID).Error; err != nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}

	var req SubmitMeasurementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Results) == 0 {
		writeError(w, http.StatusBadRequest, "results are required")
		return
	}

	merged, err := estimation.MergeResults(req.Results)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	measurement, err := h.persistMerged(lead.ID, merged, len(req.Results), "photo_analysis", middleware.GetUserID(r))
	if err != nil {
		log.Printf("❌ Failed to persist measurement for lead %s: %v", leadID, err)
		writeError(w, http.StatusInternalServerError, "failed to save measurement")
		return
	}

	log.Printf("✅ Merged %d photo results for lead %s (confidence %.2f)", len(req.Results), leadID, merged.Confidence)
	writeJSON(w, http.StatusCreated, measurement)
}

// SubmitManualMeasurementRequest is a hand-entered variable vector, used when
// an estimator measures on site or from a sketch.
type SubmitManualMeasurementRequest struct {
	Variables estimation.RoofVariables `json:"variables"`
	Pitch     float64                  `json:"pitch"`
	Notes     []string                 `json:"notes"`
}

func (h *MeasurementHandler) SubmitManualMeasurement(w http.ResponseWriter, r *http.Request) {
	leadID := mux.Vars(r)["lead_id"]

	var lead models.Lead
	if err := h.db.First(&lead, "id = ?", leadID).Error; err != nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}

	var req SubmitManualMeasurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.Variables.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	vars := req.Variables
	result := estimation.PhotoMeasurementResult{
		Success:               true,
		Confidence:            1.0, // human-entered
		EstimatedTotalSqFt:    vars.SF,
		EstimatedTotalSquares: vars.SQ,
		DetectedPitch:         req.Pitch,
		PitchCategory:         estimation.PitchCategory(req.Pitch),
		SuggestedVariables:    &vars,
		Notes:                 req.Notes,
	}

	measurement, err := h.persistMerged(lead.ID, result, 0, "manual", middleware.GetUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save measurement")
		return
	}
	writeJSON(w, http.StatusCreated, measurement)
}

func (h *MeasurementHandler) persistMerged(leadID uuid.UUID, merged estimation.PhotoMeasurementResult, photoCount int, source, createdBy string) (*models.RoofMeasurement, error) {
	planes, err := json.Marshal(merged.DetectedPlanes)
	if err != nil {
		return nil, err
	}
	features, err := json.Marshal(merged.DetectedFeatures)
	if err != nil {
		return nil, err
	}
	var variables []byte
	if merged.SuggestedVariables != nil {
		if variables, err = json.Marshal(merged.SuggestedVariables); err != nil {
			return nil, err
		}
	}

	measurement := models.RoofMeasurement{
		LeadID:            leadID,
		Source:            source,
		Confidence:        merged.Confidence,
		PhotoCount:        photoCount,
		TotalSqFt:         merged.EstimatedTotalSqFt,
		TotalSquares:      merged.EstimatedTotalSquares,
		FootprintLengthFt: merged.FootprintLengthFt,
		FootprintWidthFt:  merged.FootprintWidthFt,
		DetectedMaterial:  merged.DetectedMaterial,
		DetectedPitch:     merged.DetectedPitch,
		PitchCategory:     merged.PitchCategory,
		RoofStyle:         merged.RoofStyle,
		Planes:            planes,
		Features:          features,
		Variables:         variables,
		Notes:             merged.Notes,
		CreatedBy:         createdBy,
	}
	if err := h.db.Create(&measurement).Error; err != nil {
		return nil, err
	}
	return &measurement, nil
}

// ListMeasurements returns a lead's measurements, newest first.
func (h *MeasurementHandler) ListMeasurements(w http.ResponseWriter, r *http.Request) {
	leadID := mux.Vars(r)["lead_id"]
	var measurements []models.RoofMeasurement
	if err := h.db.Where("lead_id = ?", leadID).Order("created_at DESC").Find(&measurements).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list measurements")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"measurements": measurements, "count": len(measurements)})
}

func (h *MeasurementHandler) GetMeasurement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var measurement models.RoofMeasurement
	if err := h.db.First(&measurement, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "measurement not found")
		return
	}
	writeJSON(w, http.StatusOK, measurement)
}
