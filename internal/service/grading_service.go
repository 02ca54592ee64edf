package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/models"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type gradingExamReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
}

type gradingResultWriter interface {
	Create(ctx context.Context, result *models.ExamResult) error
}

type resultNotifier interface {
	Notify(n ResultNotification) error
}

// SubmitExamRequest is one candidate's answer sheet plus the integrity
// flags collected during the attempt.
type SubmitExamRequest struct {
	ExamID      string           `json:"exam_id" validate:"required"`
	StudentName string           `json:"student_name" validate:"required"`
	Email       string           `json:"email" validate:"required,email"`
	Whatsapp    string           `json:"whatsapp"`
	Answers     models.AnswerMap `json:"answers"`
	Flags       []string         `json:"flags"`
}

// GradingService scores submissions against the stored answer key and
// persists the outcome. Scoring is strict equality per question, no
// partial credit and no normalisation.
type GradingService struct {
	exams         gradingExamReader
	results       gradingResultWriter
	notifier      resultNotifier
	validator     *validator.Validate
	logger        *zap.Logger
	passThreshold int
}

// NewGradingService constructs the grading service.
func NewGradingService(exams gradingExamReader, results gradingResultWriter, notifier resultNotifier, validate *validator.Validate, logger *zap.Logger, passThreshold int) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if passThreshold <= 0 {
		passThreshold = 50
	}
	return &GradingService{
		exams:         exams,
		results:       results,
		notifier:      notifier,
		validator:     validate,
		logger:        logger,
		passThreshold: passThreshold,
	}
}

// Grade scores the submission, persists an ExamResult and queues the
// best-effort notification email. The result row is the artifact of
// value: it is written before any notification attempt and a relay
// failure never rolls it back.
func (s *GradingService) Grade(ctx context.Context, req SubmitExamRequest) (*models.ExamResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	exam, err := s.exams.FindByID(ctx, req.ExamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	finalScore := s.score(exam.Questions, req.Answers)

	status := models.ResultFailed
	if finalScore >= s.passThreshold {
		status = models.ResultPassed
	}

	result := &models.ExamResult{
		ExamID:        exam.ID,
		StudentName:   req.StudentName,
		Email:         req.Email,
		Whatsapp:      req.Whatsapp,
		Score:         finalScore,
		Status:        status,
		SecurityFlags: pq.StringArray(req.Flags),
	}
	if err := s.results.Create(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist result")
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ResultNotification{
			To:          req.Email,
			StudentName: req.StudentName,
			ExamTitle:   exam.Title,
			Score:       finalScore,
		}); err != nil {
			s.logger.Warn("result notification enqueue failed",
				zap.String("result_id", result.ID), zap.Error(err))
		}
	}

	return result, nil
}

// score counts strict, case-sensitive answer matches. An exam without
// questions grades deterministically to zero.
func (s *GradingService) score(questions models.QuestionList, answers models.AnswerMap) int {
	total := len(questions)
	if total == 0 {
		return 0
	}

	correct := 0
	for i, q := range questions {
		if answers[strconv.Itoa(i)] == q.Answer {
			correct++
		}
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
