package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careerlab/careerlab-os/internal/models"
	"github.com/careerlab/careerlab-os/internal/service"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
	"github.com/careerlab/careerlab-os/pkg/response"
)

type publicExamService interface {
	GetPublic(ctx context.Context, id string) (*models.PublicExam, error)
}

type examSessionService interface {
	Start(ctx context.Context, examID string, req service.StartSessionRequest) (*service.StartSessionResponse, error)
	Get(ctx context.Context, id string) (*models.ExamSession, error)
	RecordAnswer(ctx context.Context, id string, req service.SessionAnswerRequest) error
	RecordFlag(ctx context.Context, id string, req service.SessionFlagRequest) error
	Submit(ctx context.Context, id string) (*models.ExamResult, error)
}

type directGradingService interface {
	Grade(ctx context.Context, req service.SubmitExamRequest) (*models.ExamResult, error)
}

// SessionHandler wires the candidate-facing proctored session endpoints.
// These routes are unauthenticated; candidates identify by name and email.
type SessionHandler struct {
	exams    publicExamService
	sessions examSessionService
	grading  directGradingService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(exams publicExamService, sessions examSessionService, grading directGradingService) *SessionHandler {
	return &SessionHandler{exams: exams, sessions: sessions, grading: grading}
}

// GetExam godoc
// @Summary Fetch the candidate view of an exam
// @Tags Sessions
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /public/exams/{id} [get]
func (h *SessionHandler) GetExam(c *gin.Context) {
	exam, err := h.exams.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Start godoc
// @Summary Start a proctored session for an exam
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body service.StartSessionRequest true "Candidate identity"
// @Success 201 {object} response.Envelope
// @Router /public/exams/{id}/sessions [post]
func (h *SessionHandler) Start(c *gin.Context) {
	var req service.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.sessions.Start(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Get godoc
// @Summary Fetch session state including the server countdown
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /public/sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"remaining_seconds": session.RemainingSeconds(time.Now().UTC())}
	response.JSON(c, http.StatusOK, session, nil, meta)
}

// Answer godoc
// @Summary Record an answer for one question
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.SessionAnswerRequest true "Answer"
// @Success 204
// @Router /public/sessions/{id}/answers [put]
func (h *SessionHandler) Answer(c *gin.Context) {
	var req service.SessionAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	if err := h.sessions.RecordAnswer(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Flag godoc
// @Summary Record an integrity violation
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.SessionFlagRequest true "Violation kind"
// @Success 204
// @Router /public/sessions/{id}/flags [post]
func (h *SessionHandler) Flag(c *gin.Context) {
	var req service.SessionFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	if err := h.sessions.RecordFlag(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SubmitDirect godoc
// @Summary Submit answers for grading without a tracked session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.SubmitExamRequest true "Submission"
// @Success 201 {object} response.Envelope
// @Router /public/exams/submit [post]
func (h *SessionHandler) SubmitDirect(c *gin.Context) {
	var req service.SubmitExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.grading.Grade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Submit godoc
// @Summary Submit the session for grading
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /public/sessions/{id}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	result, err := h.sessions.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
