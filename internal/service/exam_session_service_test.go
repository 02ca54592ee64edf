package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlab/careerlab-os/internal/models"
	"github.com/careerlab/careerlab-os/pkg/config"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

// memSessionRepo mirrors the conditional-update semantics of the SQL
// repository so state machine tests exercise the same guards.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.ExamSession
	nextID   int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*models.ExamSession)}
}

func (m *memSessionRepo) Create(ctx context.Context, session *models.ExamSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	session.ID = fmt.Sprintf("sess-%d", m.nextID)
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *memSessionRepo) FindByID(ctx context.Context, id string) (*models.ExamSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *session
	copied.Answers = make(models.AnswerMap, len(session.Answers))
	for k, v := range session.Answers {
		copied.Answers[k] = v
	}
	copied.SecurityFlags = append(pq.StringArray{}, session.SecurityFlags...)
	return &copied, nil
}

func (m *memSessionRepo) SetAnswer(ctx context.Context, id string, index int, answer string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok || session.Status != models.SessionActive || !session.Deadline.After(now) {
		return false, nil
	}
	if session.Answers == nil {
		session.Answers = models.AnswerMap{}
	}
	session.Answers[strconv.Itoa(index)] = answer
	return true, nil
}

func (m *memSessionRepo) AppendFlag(ctx context.Context, id, flag string, maxFlags int, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok || session.Status != models.SessionActive || len(session.SecurityFlags) >= maxFlags {
		return false, nil
	}
	session.SecurityFlags = append(session.SecurityFlags, flag)
	return true, nil
}

func (m *memSessionRepo) AppendTruncationMarker(ctx context.Context, id, marker string, maxFlags int, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok || len(session.SecurityFlags) != maxFlags {
		return nil
	}
	session.SecurityFlags = append(session.SecurityFlags, marker)
	return nil
}

func (m *memSessionRepo) BeginSubmission(ctx context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok || session.Status != models.SessionActive {
		return false, nil
	}
	session.Status = models.SessionSubmitting
	return true, nil
}

func (m *memSessionRepo) FinishSubmission(ctx context.Context, id, resultID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok || session.Status != models.SessionSubmitting {
		return fmt.Errorf("session %s not submitting", id)
	}
	session.Status = models.SessionSubmitted
	session.ResultID = &resultID
	return nil
}

func (m *memSessionRepo) ReleaseSubmission(ctx context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok || session.Status != models.SessionSubmitting {
		return nil
	}
	session.Status = models.SessionActive
	return nil
}

func (m *memSessionRepo) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]models.ExamSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var overdue []models.ExamSession
	for _, session := range m.sessions {
		if session.Status == models.SessionActive && session.Deadline.Before(cutoff) {
			overdue = append(overdue, *session)
			if len(overdue) >= limit {
				break
			}
		}
	}
	return overdue, nil
}

type stubGrader struct {
	mu      sync.Mutex
	calls   int
	failErr error
}

func (s *stubGrader) Grade(ctx context.Context, req SubmitExamRequest) (*models.ExamResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	s.calls++
	return &models.ExamResult{ID: fmt.Sprintf("res-%d", s.calls), ExamID: req.ExamID, Score: 80, Status: models.ResultPassed}, nil
}

func sessionTestConfig() config.ExamConfig {
	return config.ExamConfig{PassThreshold: 50, MaxSecurityFlags: 3, SessionGrace: 30 * time.Second}
}

func newSessionFixture(t *testing.T) (*ExamSessionService, *memSessionRepo, *stubGrader) {
	t.Helper()
	repo := newMemSessionRepo()
	exams := &mockGradingExams{exams: map[string]*models.Exam{"exam-1": {
		ID: "exam-1", Title: "Aptitude Round", TimeLimit: 30,
		Questions: models.QuestionList{{Question: "Q1", Options: []string{"A", "B", "C", "D"}, Answer: "A"}},
	}}}
	grader := &stubGrader{}
	svc := NewExamSessionService(repo, exams, grader, nil, nil, sessionTestConfig())
	return svc, repo, grader
}

func startSession(t *testing.T, svc *ExamSessionService) *models.ExamSession {
	t.Helper()
	resp, err := svc.Start(context.Background(), "exam-1", StartSessionRequest{
		StudentName: "Priya",
		Email:       "priya@example.com",
		CameraReady: true,
	})
	require.NoError(t, err)
	return resp.Session
}

func TestSessionStartRequiresCamera(t *testing.T) {
	svc, _, _ := newSessionFixture(t)

	_, err := svc.Start(context.Background(), "exam-1", StartSessionRequest{
		StudentName: "Priya",
		Email:       "priya@example.com",
		CameraReady: false,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camera")
}

func TestSessionStartRequiresIdentity(t *testing.T) {
	svc, _, _ := newSessionFixture(t)

	_, err := svc.Start(context.Background(), "exam-1", StartSessionRequest{CameraReady: true})
	require.Error(t, err)

	_, err = svc.Start(context.Background(), "exam-1", StartSessionRequest{
		StudentName: "Priya",
		Email:       "not-an-email",
		CameraReady: true,
	})
	require.Error(t, err)
}

func TestSessionStartRedactsAnswers(t *testing.T) {
	svc, _, _ := newSessionFixture(t)

	resp, err := svc.Start(context.Background(), "exam-1", StartSessionRequest{
		StudentName: "Priya",
		Email:       "priya@example.com",
		CameraReady: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, resp.Session.Status)
	require.Len(t, resp.Exam.Questions, 1)
	assert.Equal(t, "Q1", resp.Exam.Questions[0].Question)
	assert.Len(t, resp.Exam.Questions[0].Options, 4)
}

func TestSessionDeadlineFromTimeLimit(t *testing.T) {
	svc, _, _ := newSessionFixture(t)
	session := startSession(t, svc)
	assert.Equal(t, 30*time.Minute, session.Deadline.Sub(session.StartedAt))
}

func TestSessionAnswerLastWriteWins(t *testing.T) {
	svc, repo, _ := newSessionFixture(t)
	session := startSession(t, svc)

	require.NoError(t, svc.RecordAnswer(context.Background(), session.ID, SessionAnswerRequest{Index: 0, Answer: "B"}))
	require.NoError(t, svc.RecordAnswer(context.Background(), session.ID, SessionAnswerRequest{Index: 0, Answer: "A"}))

	stored, err := repo.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Answers["0"])
}

func TestSessionAnswerRejectedAfterDeadline(t *testing.T) {
	svc, repo, _ := newSessionFixture(t)
	session := startSession(t, svc)
	repo.sessions[session.ID].Deadline = time.Now().UTC().Add(-time.Minute)

	err := svc.RecordAnswer(context.Background(), session.ID, SessionAnswerRequest{Index: 0, Answer: "A"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSessionFlagAppendsTimestamped(t *testing.T) {
	svc, repo, _ := newSessionFixture(t)
	session := startSession(t, svc)

	require.NoError(t, svc.RecordFlag(context.Background(), session.ID, SessionFlagRequest{Kind: "Tab Switch"}))

	stored, err := repo.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, stored.SecurityFlags, 1)
	assert.Contains(t, stored.SecurityFlags[0], "Tab Switch at ")
}

func TestSessionFlagCapWritesTruncationMarker(t *testing.T) {
	svc, repo, _ := newSessionFixture(t)
	session := startSession(t, svc)

	// Cap is 3 in the fixture; push past it.
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.RecordFlag(context.Background(), session.ID, SessionFlagRequest{Kind: "Window Blur"}))
	}

	stored, err := repo.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, stored.SecurityFlags, 4)
	assert.Contains(t, stored.SecurityFlags[3], "truncated")
}

func TestSessionSubmitGradesOnce(t *testing.T) {
	svc, repo, grader := newSessionFixture(t)
	session := startSession(t, svc)

	result, err := svc.Submit(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, result.Score)
	assert.Equal(t, 1, grader.calls)

	stored, err := repo.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionSubmitted, stored.Status)
	require.NotNil(t, stored.ResultID)

	_, err = svc.Submit(context.Background(), session.ID)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 1, grader.calls)
}

func TestSessionConcurrentSubmitGradesOnce(t *testing.T) {
	svc, _, grader := newSessionFixture(t)
	session := startSession(t, svc)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Submit(context.Background(), session.ID)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, grader.calls)
}

func TestSessionSubmitRevertsOnGradingFailure(t *testing.T) {
	svc, repo, grader := newSessionFixture(t)
	session := startSession(t, svc)
	grader.failErr = errors.New("model unavailable")

	_, err := svc.Submit(context.Background(), session.ID)
	require.Error(t, err)

	stored, findErr := repo.FindByID(context.Background(), session.ID)
	require.NoError(t, findErr)
	assert.Equal(t, models.SessionActive, stored.Status)

	// Retry succeeds once grading recovers.
	grader.failErr = nil
	_, err = svc.Submit(context.Background(), session.ID)
	require.NoError(t, err)
}

func TestSessionExpireOverdueAutoSubmits(t *testing.T) {
	svc, repo, grader := newSessionFixture(t)
	session := startSession(t, svc)
	fresh := startSession(t, svc)
	repo.sessions[session.ID].Deadline = time.Now().UTC().Add(-5 * time.Minute)

	submitted := svc.ExpireOverdue(context.Background())
	assert.Equal(t, 1, submitted)
	assert.Equal(t, 1, grader.calls)

	expired, err := repo.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionSubmitted, expired.Status)

	untouched, err := repo.FindByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, untouched.Status)
}
