package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerlab/careerlab-os/internal/models"
	"github.com/careerlab/careerlab-os/internal/service"
	"github.com/careerlab/careerlab-os/pkg/response"
)

type outreachService interface {
	ProcessBatch(ctx context.Context) (*service.BatchReport, error)
	SendFollowUp(ctx context.Context, leadID string) (*models.Communication, error)
}

// OutreachHandler wires autonomous outbound endpoints.
type OutreachHandler struct {
	service outreachService
}

// NewOutreachHandler constructs the handler.
func NewOutreachHandler(service outreachService) *OutreachHandler {
	return &OutreachHandler{service: service}
}

// ProcessBatch godoc
// @Summary Run one autonomous outreach batch
// @Tags Outreach
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /outreach/process [post]
func (h *OutreachHandler) ProcessBatch(c *gin.Context) {
	report, err := h.service.ProcessBatch(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// FollowUp godoc
// @Summary Send a follow-up email to one lead
// @Tags Outreach
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /leads/{id}/followup [post]
func (h *OutreachHandler) FollowUp(c *gin.Context) {
	comm, err := h.service.SendFollowUp(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comm, nil)
}
