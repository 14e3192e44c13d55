package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/services"
)

type ReportsHandler struct {
	reports *services.ReportService
	log     *logger.Logger
}

func NewReportsHandler(reports *services.ReportService, log *logger.Logger) *ReportsHandler {
	return &ReportsHandler{reports: reports, log: log}
}

// Generate godoc
// @Summary     Generate inspection report
// @Description Renders the PDF for the current inspection data. A failure is recorded as ERROR and can be retried.
// @Tags        reports
// @Produce     json
// @Security    Bearer
// @Param       id path int true "Inspection ID"
// @Success     200 {object} models.GenerateReportResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.GenerateReportResponse
// @Router      /api/inspecciones/{id}/generar-pdf [post]
func (h *ReportsHandler) Generate(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	res, err := h.reports.Generate(c.Request.Context(), id)
	if err != nil {
		if apiErr := apierr.As(err); apiErr.Code == apierr.CodeRender {
			_ = c.Error(err)
			c.JSON(apiErr.Status, models.GenerateReportResponse{
				Success:   false,
				PDFStatus: models.ReportError,
				Error:     apiErr.Code,
				Message:   apiErr.Message,
			})
			return
		}
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateReportResponse{
		Success:   true,
		PDFURL:    res.Location,
		PDFHash:   res.Hash,
		PDFStatus: res.Status,
	})
}
