package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/models"
	"p9e.in/roofline/pkg/estimation"
)

// ReportHandler aggregates the sales pipeline and revenue views for the back
// office, as JSON and as an Excel download.
type ReportHandler struct {
	db *gorm.DB
}

func NewReportHandler() *ReportHandler {
	return &ReportHandler{db: config.DB}
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type statusAmount struct {
	Status string  `json:"status"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

type pipelineReport struct {
	GeneratedAt       time.Time      `json:"generated_at"`
	Since             *time.Time     `json:"since,omitempty"`
	LeadsByStatus     []statusCount  `json:"leads_by_status"`
	EstimatesByStatus []statusAmount `json:"estimates_by_status"`
	JobsByStatus      []statusAmount `json:"jobs_by_status"`
	InvoicesByStatus  []statusAmount `json:"invoices_by_status"`
	WinRate           float64        `json:"win_rate"`
	BookedRevenue     float64        `json:"booked_revenue"`
	CollectedRevenue  float64        `json:"collected_revenue"`
}

func (h *ReportHandler) buildPipelineReport(since *time.Time) (*pipelineReport, error) {
	report := &pipelineReport{GeneratedAt: time.Now(), Since: since}

	scoped := func(model interface{}) *gorm.DB {
		q := h.db.Model(model)
		if since != nil {
			q = q.Where("created_at >= ?", *since)
		}
		return q
	}

	if err := scoped(&models.Lead{}).
		Select("status, COUNT(*) as count").
		Group("status").Scan(&report.LeadsByStatus).Error; err != nil {
		return nil, err
	}
	if err := scoped(&models.DetailedEstimate{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(price_likely), 0) as total").
		Group("status").Scan(&report.EstimatesByStatus).Error; err != nil {
		return nil, err
	}
	if err := scoped(&models.Job{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(contract_amount), 0) as total").
		Group("status").Scan(&report.JobsByStatus).Error; err != nil {
		return nil, err
	}
	if err := scoped(&models.Invoice{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(amount), 0) as total").
		Group("status").Scan(&report.InvoicesByStatus).Error; err != nil {
		return nil, err
	}

	var won, lost int64
	for _, row := range report.LeadsByStatus {
		switch models.LeadStatus(row.Status) {
		case models.LeadStatusWon:
			won = row.Count
		case models.LeadStatusLost:
			lost = row.Count
		}
	}
	if won+lost > 0 {
		report.WinRate = estimation.Round2(float64(won) / float64(won+lost) * 100)
	}
	for _, row := range report.JobsByStatus {
		if models.JobStatus(row.Status) != models.JobStatusCancelled {
			report.BookedRevenue += row.Total
		}
	}
	report.BookedRevenue = estimation.Round2(report.BookedRevenue)
	for _, row := range report.InvoicesByStatus {
		if models.InvoiceStatus(row.Status) == models.InvoiceStatusPaid {
			report.CollectedRevenue += row.Total
		}
	}
	report.CollectedRevenue = estimation.Round2(report.CollectedRevenue)
	return report, nil
}

func parseSince(r *http.Request) *time.Time {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

func (h *ReportHandler) GetPipelineReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.buildPipelineReport(parseSince(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportPipelineReport renders the pipeline report as a spreadsheet.
func (h *ReportHandler) ExportPipelineReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.buildPipelineReport(parseSince(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	f := excelize.NewFile()
	sheet := "Pipeline"
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
	f.SetCellValue(sheet, "A1", "Sales Pipeline Report")
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	f.SetRowHeight(sheet, 1, 30)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	row := 4
	section := func(title string, headers []string) {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
		row++
		for colIdx, header := range headers {
			c, _ := excelize.CoordinatesToCellName(colIdx+1, row)
			f.SetCellValue(sheet, c, header)
		}
		row++
	}

	section("Leads", []string{"Status", "Count"})
	for _, entry := range report.LeadsByStatus {
		a, _ := excelize.CoordinatesToCellName(1, row)
		b, _ := excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(sheet, a, entry.Status)
		f.SetCellValue(sheet, b, entry.Count)
		row++
	}
	row++

	amountSection := func(title string, rows []statusAmount) {
		section(title, []string{"Status", "Count", "Total"})
		for _, entry := range rows {
			a, _ := excelize.CoordinatesToCellName(1, row)
			b, _ := excelize.CoordinatesToCellName(2, row)
			c, _ := excelize.CoordinatesToCellName(3, row)
			f.SetCellValue(sheet, a, entry.Status)
			f.SetCellValue(sheet, b, entry.Count)
			f.SetCellValue(sheet, c, entry.Total)
			row++
		}
		row++
	}
	amountSection("Estimates", report.EstimatesByStatus)
	amountSection("Jobs", report.JobsByStatus)
	amountSection("Invoices", report.InvoicesByStatus)

	section("Summary", []string{"Metric", "Value"})
	summary := [][2]interface{}{
		{"Win Rate (%)", report.WinRate},
		{"Booked Revenue", report.BookedRevenue},
		{"Collected Revenue", report.CollectedRevenue},
	}
	for _, entry := range summary {
		a, _ := excelize.CoordinatesToCellName(1, row)
		b, _ := excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(sheet, a, entry[0])
		f.SetCellValue(sheet, b, entry[1])
		row++
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write Excel file")
		return
	}
	filename := fmt.Sprintf("pipeline_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}
