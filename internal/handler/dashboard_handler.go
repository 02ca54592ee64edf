package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careerlab/careerlab-os/internal/models"
	"github.com/careerlab/careerlab-os/internal/service"
	"github.com/careerlab/careerlab-os/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, bool, error)
	Analytics(ctx context.Context) ([]models.AnalyticsPoint, bool, error)
}

// DashboardHandler wires dashboard read models to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
	metrics *service.MetricsService
}

// NewDashboardHandler constructs the handler. metrics may be nil.
func NewDashboardHandler(svc dashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{service: svc, metrics: metrics}
}

// Stats godoc
// @Summary Headline dashboard counters
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	start := time.Now()
	stats, cacheHit, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCacheOperation(cacheHit, time.Since(start))
	meta := map[string]interface{}{
		"cache_hit":          cacheHit,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
	response.JSON(c, http.StatusOK, stats, nil, meta)
}

// Analytics godoc
// @Summary Trailing lead acquisition chart
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/analytics [get]
func (h *DashboardHandler) Analytics(c *gin.Context) {
	start := time.Now()
	points, cacheHit, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCacheOperation(cacheHit, time.Since(start))
	meta := map[string]interface{}{
		"cache_hit":          cacheHit,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
	response.JSON(c, http.StatusOK, points, nil, meta)
}
