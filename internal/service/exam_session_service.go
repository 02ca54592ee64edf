package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/models"
	"github.com/careerlab/careerlab-os/pkg/config"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type sessionRepository interface {
	Create(ctx context.Context, session *models.ExamSession) error
	FindByID(ctx context.Context, id string) (*models.ExamSession, error)
	SetAnswer(ctx context.Context, id string, index int, answer string, now time.Time) (bool, error)
	AppendFlag(ctx context.Context, id, flag string, maxFlags int, now time.Time) (bool, error)
	AppendTruncationMarker(ctx context.Context, id, marker string, maxFlags int, now time.Time) error
	BeginSubmission(ctx context.Context, id string, now time.Time) (bool, error)
	FinishSubmission(ctx context.Context, id, resultID string, now time.Time) error
	ReleaseSubmission(ctx context.Context, id string, now time.Time) error
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]models.ExamSession, error)
}

type sessionExamReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
}

type sessionGrader interface {
	Grade(ctx context.Context, req SubmitExamRequest) (*models.ExamResult, error)
}

// StartSessionRequest gates entry into a proctored attempt. The camera
// acknowledgement mirrors the proctoring gate: without it the session
// never starts.
type StartSessionRequest struct {
	StudentName string `json:"student_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Whatsapp    string `json:"whatsapp"`
	CameraReady bool   `json:"camera_ready"`
}

// StartSessionResponse returns the created session alongside the
// answer-redacted question set.
type StartSessionResponse struct {
	Session *models.ExamSession `json:"session"`
	Exam    *models.PublicExam  `json:"exam"`
}

// SessionFlagRequest names the violation being recorded.
type SessionFlagRequest struct {
	Kind string `json:"kind"`
}

// SessionAnswerRequest records one answer, last write wins per index.
type SessionAnswerRequest struct {
	Index  int    `json:"index" validate:"min=0"`
	Answer string `json:"answer" validate:"required"`
}

const sweepBatchSize = 50

// ExamSessionService drives the server-side proctored session state
// machine: ACTIVE until deadline or submission, SUBMITTING while exactly
// one grading attempt is in flight, then SUBMITTED. Integrity flags are
// collected append-only while the session is ACTIVE.
type ExamSessionService struct {
	sessions  sessionRepository
	exams     sessionExamReader
	grader    sessionGrader
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.ExamConfig
	now       func() time.Time
}

// NewExamSessionService constructs the session service.
func NewExamSessionService(sessions sessionRepository, exams sessionExamReader, grader sessionGrader, validate *validator.Validate, logger *zap.Logger, cfg config.ExamConfig) *ExamSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSecurityFlags <= 0 {
		cfg.MaxSecurityFlags = 500
	}
	return &ExamSessionService{
		sessions:  sessions,
		exams:     exams,
		grader:    grader,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start validates the candidate's identity, enforces the camera gate and
// opens an ACTIVE session with the countdown deadline.
func (s *ExamSessionService) Start(ctx context.Context, examID string, req StartSessionRequest) (*StartSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student name and email are required")
	}
	if !req.CameraReady {
		return nil, appErrors.Clone(appErrors.ErrValidation, "camera access is mandatory for proctored sessions")
	}

	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	now := s.now()
	session := &models.ExamSession{
		ExamID:        exam.ID,
		StudentName:   req.StudentName,
		Email:         req.Email,
		Whatsapp:      req.Whatsapp,
		Status:        models.SessionActive,
		StartedAt:     now,
		Deadline:      now.Add(time.Duration(exam.TimeLimit) * time.Minute),
		Answers:       models.AnswerMap{},
		SecurityFlags: pq.StringArray{},
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start session")
	}

	return &StartSessionResponse{Session: session, Exam: exam.Public()}, nil
}

// Get returns the current session state.
func (s *ExamSessionService) Get(ctx context.Context, id string) (*models.ExamSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// RecordAnswer stores the chosen answer for one question index,
// overwriting any prior choice. Writes after the deadline or after
// submission are rejected.
func (s *ExamSessionService) RecordAnswer(ctx context.Context, id string, req SessionAnswerRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload")
	}

	landed, err := s.sessions.SetAnswer(ctx, id, req.Index, req.Answer, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record answer")
	}
	if landed {
		return nil
	}
	return s.classifyRejection(ctx, id)
}

// RecordFlag appends one time-stamped integrity flag. The log is
// append-only and capped; hitting the cap writes a single truncation
// marker so graders can tell the log was cut short.
func (s *ExamSessionService) RecordFlag(ctx context.Context, id string, req SessionFlagRequest) error {
	kind := req.Kind
	if kind == "" {
		kind = "Tab Switch"
	}
	now := s.now()
	flag := fmt.Sprintf("%s at %s", kind, now.Format("15:04:05"))

	landed, err := s.sessions.AppendFlag(ctx, id, flag, s.cfg.MaxSecurityFlags, now)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record flag")
	}
	if landed {
		return nil
	}

	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status == models.SessionActive && len(session.SecurityFlags) >= s.cfg.MaxSecurityFlags {
		marker := fmt.Sprintf("Flag log truncated at %d entries", s.cfg.MaxSecurityFlags)
		if err := s.sessions.AppendTruncationMarker(ctx, id, marker, s.cfg.MaxSecurityFlags, now); err != nil {
			s.logger.Warn("failed to append truncation marker", zap.String("session_id", id), zap.Error(err))
		}
		return nil
	}
	return appErrors.Clone(appErrors.ErrConflict, "session is no longer active")
}

// Submit grades the session exactly once. Concurrent manual submits and
// the expiry sweeper race through the same guarded ACTIVE -> SUBMITTING
// transition; only the winner grades. A grading failure releases the
// session back to ACTIVE for a manual retry.
func (s *ExamSessionService) Submit(ctx context.Context, id string) (*models.ExamResult, error) {
	now := s.now()
	started, err := s.sessions.BeginSubmission(ctx, id, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin submission")
	}
	if !started {
		return nil, s.classifyRejection(ctx, id)
	}

	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		releaseErr := s.sessions.ReleaseSubmission(ctx, id, s.now())
		if releaseErr != nil {
			s.logger.Error("failed to release session after load error", zap.String("session_id", id), zap.Error(releaseErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	result, err := s.grader.Grade(ctx, SubmitExamRequest{
		ExamID:      session.ExamID,
		StudentName: session.StudentName,
		Email:       session.Email,
		Whatsapp:    session.Whatsapp,
		Answers:     session.Answers,
		Flags:       session.SecurityFlags,
	})
	if err != nil {
		if releaseErr := s.sessions.ReleaseSubmission(ctx, id, s.now()); releaseErr != nil {
			s.logger.Error("failed to release session after grading error", zap.String("session_id", id), zap.Error(releaseErr))
		}
		return nil, err
	}

	if err := s.sessions.FinishSubmission(ctx, id, result.ID, s.now()); err != nil {
		// The result is already persisted; the session row is
		// reconcilable from it, so surface success.
		s.logger.Error("failed to finalize submitted session", zap.String("session_id", id), zap.Error(err))
	}
	return result, nil
}

// ExpireOverdue auto-submits every ACTIVE session whose deadline plus
// grace has passed. Each session goes through the same at-most-once
// submission guard as a manual submit.
func (s *ExamSessionService) ExpireOverdue(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.SessionGrace)
	sessions, err := s.sessions.ListOverdue(ctx, cutoff, sweepBatchSize)
	if err != nil {
		s.logger.Error("overdue session sweep failed", zap.Error(err))
		return 0
	}

	submitted := 0
	for _, session := range sessions {
		if _, err := s.Submit(ctx, session.ID); err != nil {
			var appErr *appErrors.Error
			// Losing the race to a manual submit is not an error.
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrConflict.Code {
				continue
			}
			s.logger.Warn("auto-submit failed", zap.String("session_id", session.ID), zap.Error(err))
			continue
		}
		submitted++
	}
	return submitted
}

// classifyRejection turns a failed conditional update into the precise
// client-facing error.
func (s *ExamSessionService) classifyRejection(ctx context.Context, id string) error {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	switch session.Status {
	case models.SessionSubmitting:
		return appErrors.Clone(appErrors.ErrConflict, "submission already in progress")
	case models.SessionSubmitted, models.SessionExpired:
		return appErrors.Clone(appErrors.ErrConflict, "session already submitted")
	default:
		return appErrors.Clone(appErrors.ErrConflict, "session time has elapsed")
	}
}
