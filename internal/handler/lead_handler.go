package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careerlab/careerlab-os/internal/models"
	"github.com/careerlab/careerlab-os/internal/service"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
	"github.com/careerlab/careerlab-os/pkg/response"
)

type leadService interface {
	List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.LeadDetail, error)
	Create(ctx context.Context, req service.CreateLeadRequest) (*models.Lead, error)
	Update(ctx context.Context, id string, req service.UpdateLeadRequest) (*models.Lead, error)
}

type leadAnalysisService interface {
	Analyze(ctx context.Context, id string) (*models.Lead, error)
}

// LeadHandler wires CRM lead endpoints.
type LeadHandler struct {
	service  leadService
	analysis leadAnalysisService
}

// NewLeadHandler constructs the handler.
func NewLeadHandler(service leadService, analysis leadAnalysisService) *LeadHandler {
	return &LeadHandler{service: service, analysis: analysis}
}

// List godoc
// @Summary List leads
// @Tags Leads
// @Produce json
// @Param status query string false "Filter by funnel status"
// @Param search query string false "Match name or email"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	filter := models.LeadFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		leadStatus := models.LeadStatus(strings.ToUpper(status))
		filter.Status = &leadStatus
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	leads, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leads, pagination)
}

// Get godoc
// @Summary Fetch one lead with its communication history
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Register a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body service.CreateLeadRequest true "Lead"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var req service.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	lead, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lead)
}

// Update godoc
// @Summary Patch a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body service.UpdateLeadRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /leads/{id} [put]
func (h *LeadHandler) Update(c *gin.Context) {
	var req service.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	lead, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lead, nil)
}

// Analyze godoc
// @Summary Run persona analysis on a lead
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /leads/{id}/analyze [post]
func (h *LeadHandler) Analyze(c *gin.Context) {
	lead, err := h.analysis.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lead, nil)
}
