package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerlab/careerlab-os/internal/service"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
	"github.com/careerlab/careerlab-os/pkg/response"
)

type twoFactorService interface {
	Status(ctx context.Context, userID string) (*service.TwoFactorStatus, error)
	Setup(ctx context.Context, userID string) (*service.TwoFactorSetup, error)
	Verify(ctx context.Context, userID, code string) error
}

// TwoFactorHandler wires TOTP enrolment endpoints.
type TwoFactorHandler struct {
	service twoFactorService
}

// NewTwoFactorHandler constructs the handler.
func NewTwoFactorHandler(service twoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{service: service}
}

// Status godoc
// @Summary Report 2FA enrolment state
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/2fa [get]
func (h *TwoFactorHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status, err := h.service.Status(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Setup godoc
// @Summary Provision a TOTP secret
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/2fa/setup [post]
func (h *TwoFactorHandler) Setup(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	setup, err := h.service.Setup(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, setup, nil)
}

// Verify godoc
// @Summary Verify a TOTP code
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.VerifyCodeRequest true "6-digit code"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/2fa/verify [post]
func (h *TwoFactorHandler) Verify(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	if err := h.service.Verify(c.Request.Context(), claims.UserID, req.Code); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"verified": true}, nil)
}
