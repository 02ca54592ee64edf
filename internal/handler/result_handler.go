package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerlab/careerlab-os/pkg/response"
)

// ResultHandler wires result audit endpoints.
type ResultHandler struct {
	service resultAuditService
}

// NewResultHandler constructs the handler.
func NewResultHandler(service resultAuditService) *ResultHandler {
	return &ResultHandler{service: service}
}

// Audit godoc
// @Summary Generate an integrity audit note for a result
// @Tags Results
// @Produce json
// @Param id path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /results/{id}/audit [post]
func (h *ResultHandler) Audit(c *gin.Context) {
	result, err := h.service.Audit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
