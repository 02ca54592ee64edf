package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlab/careerlab-os/internal/models"
	"github.com/careerlab/careerlab-os/internal/service"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type publicExamServiceMock struct {
	exam *models.PublicExam
	err  error
}

func (m *publicExamServiceMock) GetPublic(ctx context.Context, id string) (*models.PublicExam, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.exam, nil
}

type examSessionServiceMock struct {
	startResp *service.StartSessionResponse
	session   *models.ExamSession
	result    *models.ExamResult
	answerErr error
	flagErr   error
	submitErr error

	startedExamID string
	answerReq     service.SessionAnswerRequest
	flagReq       service.SessionFlagRequest
}

func (m *examSessionServiceMock) Start(ctx context.Context, examID string, req service.StartSessionRequest) (*service.StartSessionResponse, error) {
	m.startedExamID = examID
	return m.startResp, nil
}

func (m *examSessionServiceMock) Get(ctx context.Context, id string) (*models.ExamSession, error) {
	if m.session == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	return m.session, nil
}

func (m *examSessionServiceMock) RecordAnswer(ctx context.Context, id string, req service.SessionAnswerRequest) error {
	m.answerReq = req
	return m.answerErr
}

func (m *examSessionServiceMock) RecordFlag(ctx context.Context, id string, req service.SessionFlagRequest) error {
	m.flagReq = req
	return m.flagErr
}

func (m *examSessionServiceMock) Submit(ctx context.Context, id string) (*models.ExamResult, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.result, nil
}

type directGradingServiceMock struct {
	result *models.ExamResult
	req    service.SubmitExamRequest
}

func (m *directGradingServiceMock) Grade(ctx context.Context, req service.SubmitExamRequest) (*models.ExamResult, error) {
	m.req = req
	return m.result, nil
}

func TestSessionHandlerSubmitDirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	grading := &directGradingServiceMock{result: &models.ExamResult{ID: "result-1", Score: 50, Status: models.ResultPassed}}
	handler := NewSessionHandler(&publicExamServiceMock{}, &examSessionServiceMock{}, grading)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.SubmitExamRequest{
		ExamID:      "exam-1",
		StudentName: "Priya",
		Email:       "priya@example.com",
		Answers:     models.AnswerMap{"0": "Paris"},
	})
	req, _ := http.NewRequest(http.MethodPost, "/public/exams/submit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.SubmitDirect(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "exam-1", grading.req.ExamID)
}

func TestSessionHandlerStart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &examSessionServiceMock{startResp: &service.StartSessionResponse{
		Session: &models.ExamSession{ID: "sess-1", Status: models.SessionActive},
	}}
	handler := NewSessionHandler(&publicExamServiceMock{}, svc, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.StartSessionRequest{StudentName: "Priya", Email: "priya@example.com", CameraReady: true})
	req, _ := http.NewRequest(http.MethodPost, "/public/exams/exam-1/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "exam-1"}}

	handler.Start(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "exam-1", svc.startedExamID)
}

func TestSessionHandlerStartInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(&publicExamServiceMock{}, &examSessionServiceMock{}, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/public/exams/exam-1/sessions", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "exam-1"}}

	handler.Start(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerGetReportsCountdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &examSessionServiceMock{session: &models.ExamSession{
		ID:       "sess-1",
		Status:   models.SessionActive,
		Deadline: time.Now().UTC().Add(10 * time.Minute),
	}}
	handler := NewSessionHandler(&publicExamServiceMock{}, svc, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/public/sessions/sess-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	remaining, ok := envelope.Meta["remaining_seconds"].(float64)
	require.True(t, ok)
	assert.Greater(t, remaining, float64(0))
}

func TestSessionHandlerAnswerConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &examSessionServiceMock{answerErr: appErrors.Clone(appErrors.ErrConflict, "session time has elapsed")}
	handler := NewSessionHandler(&publicExamServiceMock{}, svc, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.SessionAnswerRequest{Index: 0, Answer: "Paris"})
	req, _ := http.NewRequest(http.MethodPut, "/public/sessions/sess-1/answers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Answer(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionHandlerFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &examSessionServiceMock{}
	handler := NewSessionHandler(&publicExamServiceMock{}, svc, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.SessionFlagRequest{Kind: "Fullscreen Exit"})
	req, _ := http.NewRequest(http.MethodPost, "/public/sessions/sess-1/flags", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Flag(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Fullscreen Exit", svc.flagReq.Kind)
}

func TestSessionHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &examSessionServiceMock{result: &models.ExamResult{ID: "result-1", Score: 75, Status: models.ResultPassed}}
	handler := NewSessionHandler(&publicExamServiceMock{}, svc, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/public/sessions/sess-1/submit", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Submit(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.ExamResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 75, envelope.Data.Score)
}

func TestSessionHandlerSubmitConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &examSessionServiceMock{submitErr: appErrors.Clone(appErrors.ErrConflict, "session already submitted")}
	handler := NewSessionHandler(&publicExamServiceMock{}, svc, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/public/sessions/sess-1/submit", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Submit(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
