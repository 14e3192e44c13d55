package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/services"
)

type TemplatesHandler struct {
	templates *services.TemplateService
	log       *logger.Logger
}

func NewTemplatesHandler(templates *services.TemplateService, log *logger.Logger) *TemplatesHandler {
	return &TemplatesHandler{templates: templates, log: log}
}

// ListCommodities godoc
// @Summary     List commodities
// @Description Active commodities that can receive inspections
// @Tags        templates
// @Produce     json
// @Security    Bearer
// @Success     200 {array}  models.Commodity
// @Failure     401 {object} models.ErrorResponse
// @Router      /api/commodities [get]
func (h *TemplatesHandler) ListCommodities(c *gin.Context) {
	list, err := h.templates.ListCommodities(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetActiveTemplate godoc
// @Summary     Active metric template
// @Description Returns the active template of a commodity with its fields in display order
// @Tags        templates
// @Produce     json
// @Security    Bearer
// @Param       code path string true "Commodity code"
// @Success     200 {object} models.ActiveTemplateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/commodities/{code}/template [get]
func (h *TemplatesHandler) GetActiveTemplate(c *gin.Context) {
	t, err := h.templates.GetActiveTemplate(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, activeTemplateResponse(t))
}

// PublishTemplate godoc
// @Summary     Publish a template version
// @Description Creates the next version for the commodity and makes it the only active one
// @Tags        templates
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       code path string true "Commodity code"
// @Param       request body models.PublishTemplateRequest true "Template"
// @Success     201 {object} models.PublishTemplateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/commodities/{code}/templates [post]
func (h *TemplatesHandler) PublishTemplate(c *gin.Context) {
	var req models.PublishTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apierr.Validation("invalid request body"))
		return
	}

	t, skipped, err := h.templates.PublishTemplate(c.Request.Context(), c.Param("code"), req.Name, req.Fields)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, models.PublishTemplateResponse{
		ActiveTemplateResponse: activeTemplateResponse(t),
		Skipped:                skipped,
	})
}

// ReplaceFields godoc
// @Summary     Replace template fields
// @Description Deletes every field of the template and stores the given list. Incomplete entries are skipped.
// @Tags        templates
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path int true "Template ID"
// @Param       request body models.ReplaceFieldsRequest true "Fields"
// @Success     200 {object} models.ReplaceFieldsResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/templates/{id}/fields [put]
func (h *TemplatesHandler) ReplaceFields(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req models.ReplaceFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apierr.Validation("invalid request body"))
		return
	}

	stored, skipped, err := h.templates.ReplaceFields(c.Request.Context(), id, req.Fields)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ReplaceFieldsResponse{
		TemplateID: id,
		Stored:     len(stored),
		Skipped:    skipped,
		Fields:     services.FieldViews(stored),
	})
}

func activeTemplateResponse(t *services.ActiveTemplate) models.ActiveTemplateResponse {
	return models.ActiveTemplateResponse{
		Commodity: t.Commodity,
		Template:  t.Template,
		Fields:    services.FieldViews(t.Fields),
	}
}
