package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/middleware"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/qcmetrics"
	"insproduce-backend/internal/services"
)

type InspectionsHandler struct {
	inspections    *services.InspectionService
	templates      *services.TemplateService
	files          *services.StorageService
	location       *time.Location
	maxUploadBytes int64
	log            *logger.Logger
}

func NewInspectionsHandler(
	inspections *services.InspectionService,
	templates *services.TemplateService,
	files *services.StorageService,
	location *time.Location,
	maxUploadBytes int64,
	log *logger.Logger,
) *InspectionsHandler {
	if location == nil {
		location = time.UTC
	}
	return &InspectionsHandler{
		inspections:    inspections,
		templates:      templates,
		files:          files,
		location:       location,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// Create godoc
// @Summary     Create inspection
// @Description Stores an inspection with its metrics and photos. The report starts as PENDING.
// @Tags        inspections
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       commodity formData string true "Commodity code (alias: fruta, commodity_code)"
// @Param       fotos formData file false "Photos (alias: imagenes, photos)"
// @Success     200 {object} models.CreateInspectionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/inspecciones [post]
func (h *InspectionsHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	body, files, err := readBody(c, h.maxUploadBytes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	// Reject before any file is written.
	code := body.Commodity()
	if _, err := h.templates.ResolveCommodity(ctx, code); err != nil {
		respondError(c, h.log, err)
		return
	}
	header, err := services.ParseHeader(body, h.location)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var refs []string
	for _, ref := range photoRefs(body) {
		stored, err := h.files.PhotoRef(ref)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		refs = append(refs, stored)
	}
	// Files saved by this request are removed again if it fails.
	var saved []string
	discard := func() {
		h.files.DiscardPhotos(context.WithoutCancel(ctx), saved)
	}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			discard()
			respondError(c, h.log, apierr.Validation("failed to open file %s", fh.Filename))
			return
		}
		ref, err := h.files.SavePhoto(ctx, fh.Filename, f)
		f.Close()
		if err != nil {
			discard()
			respondError(c, h.log, err)
			return
		}
		saved = append(saved, ref)
		refs = append(refs, ref)
	}

	res, err := h.inspections.Create(ctx, services.CreateInput{
		CommodityCode: code,
		Header:        header,
		Metrics:       body.MetricsInput(),
		Photos:        refs,
		CreatedBy:     middleware.UserID(c),
	})
	if err != nil {
		discard()
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, models.CreateInspectionResponse{
		Success:      true,
		InspectionID: res.Inspection.ID,
		PDFStatus:    res.Inspection.CurrentStatus(),
		Photos:       res.Photos,
		Warnings:     res.Warnings,
	})
}

// History godoc
// @Summary     Inspection history
// @Description Newest first. All supplied filters must match.
// @Tags        inspections
// @Produce     json
// @Security    Bearer
// @Param       commodity  query string false "Commodity code"
// @Param       producer   query string false "Producer (substring, case-insensitive)"
// @Param       lot        query string false "Lot (substring, case-insensitive)"
// @Param       date_from  query string false "First day (YYYY-MM-DD)"
// @Param       date_to    query string false "Last day, inclusive (YYYY-MM-DD)"
// @Param       pdf_status query string false "PENDING, OK or ERROR"
// @Success     200 {array}  models.HistoryItem
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/inspecciones/historial [get]
func (h *InspectionsHandler) History(c *gin.Context) {
	rows, err := h.inspections.ListHistory(c.Request.Context(), services.HistoryQuery{
		Commodity:    c.Query("commodity"),
		Producer:     c.Query("producer"),
		Lot:          c.Query("lot"),
		DateFrom:     c.Query("date_from"),
		DateTo:       c.Query("date_to"),
		ReportStatus: c.Query("pdf_status"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, services.HistoryItems(rows))
}

// Get godoc
// @Summary     Inspection detail
// @Tags        inspections
// @Produce     json
// @Security    Bearer
// @Param       id path int true "Inspection ID"
// @Success     200 {object} models.InspectionView
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/inspecciones/{id} [get]
func (h *InspectionsHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ins, err := h.inspections.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, services.InspectionView(ins))
}

// UpdateHeader godoc
// @Summary     Edit inspection header
// @Description Only supplied fields change. The report goes back to PENDING.
// @Tags        inspections
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path int true "Inspection ID"
// @Success     200 {object} models.UpdateInspectionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/inspecciones/{id} [put]
func (h *InspectionsHandler) UpdateHeader(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	body, _, err := readBody(c, h.maxUploadBytes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	patch, err := services.ParseHeaderPatch(body, h.location)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	update := services.HeaderUpdate{Patch: patch, Commodity: body.Commodity()}
	if body["metrics"] != nil {
		built := qcmetrics.Build(body.MetricsInput())
		update.Metrics = &built
	}

	res, err := h.inspections.UpdateHeader(c.Request.Context(), id, update)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.UpdateInspectionResponse{
		Success:    true,
		Inspection: services.InspectionView(res.Inspection),
		PDFStatus:  res.Inspection.CurrentStatus(),
		Warnings:   res.Warnings,
	})
}

// UpdateMetrics godoc
// @Summary     Edit inspection metrics
// @Description Replaces metrics.values wholesale, keeping the template reference unless a new one is given. The report goes back to PENDING.
// @Tags        inspections
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path int true "Inspection ID"
// @Success     200 {object} models.UpdateMetricsResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/inspecciones/{id}/metrics [put]
func (h *InspectionsHandler) UpdateMetrics(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	body, _, err := readBody(c, h.maxUploadBytes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	res, err := h.inspections.UpdateMetrics(c.Request.Context(), id, services.MetricsUpdate{
		Values:          body["values"],
		TemplateID:      body["template_id"],
		TemplateVersion: body["template_version"],
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.UpdateMetricsResponse{
		Success:   true,
		ID:        res.ID,
		Metrics:   res.Metrics,
		PDFStatus: models.ReportPending,
		Warnings:  res.Warnings,
	})
}
