package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shiptrack/internal/service"
)

// ReportHandler handles HTTP requests for delivery reports.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetDeliveryReport handles GET /v1/orders/:id/report.
// With Accept: text/plain the report is rendered as printable text.
func (h *ReportHandler) GetDeliveryReport(c *gin.Context) {
	report, err := h.reportService.GenerateDeliveryReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if strings.Contains(c.GetHeader("Accept"), "text/plain") {
		c.String(http.StatusOK, h.reportService.FormatReport(report))
		return
	}
	respondJSON(c, http.StatusOK, report)
}
