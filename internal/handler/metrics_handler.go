package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerlab/careerlab-os/internal/service"
	"github.com/careerlab/careerlab-os/pkg/response"
)

// MetricsHandler exposes Prometheus scrape and snapshot endpoints.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler constructs the handler.
func NewMetricsHandler(service *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: service}
}

// Prometheus godoc
// @Summary Prometheus scrape endpoint
// @Tags Metrics
// @Produce plain
// @Success 200 {string} string
// @Router /metrics [get]
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.service.Handler().ServeHTTP(c.Writer, c.Request)
}

// Snapshot godoc
// @Summary Aggregated runtime metrics
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /system/metrics [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Snapshot(), nil)
}
