package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerlab/careerlab-os/internal/service"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
	"github.com/careerlab/careerlab-os/pkg/response"
)

type chatService interface {
	Chat(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error)
}

// ChatHandler wires the operations assistant endpoint.
type ChatHandler struct {
	service chatService
}

// NewChatHandler constructs the handler.
func NewChatHandler(service chatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Chat godoc
// @Summary Ask the operations assistant
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body service.ChatRequest true "Message and transcript"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	reply, err := h.service.Chat(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}
