package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/ai"
	"github.com/careerlab/careerlab-os/internal/models"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type examRepository interface {
	List(ctx context.Context) ([]models.ExamSummary, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	ReplaceQuestions(ctx context.Context, id string, questions models.QuestionList) error
}

// CreateExamRequest creates an assessment shell, optionally pre-seeded
// with questions.
type CreateExamRequest struct {
	Title       string                `json:"title" validate:"required"`
	CollegeName string                `json:"college_name" validate:"required"`
	TimeLimit   int                   `json:"time_limit" validate:"required,min=1,max=600"`
	Difficulty  models.ExamDifficulty `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Questions   []models.Question     `json:"questions"`
}

// GenerateQuestionsRequest asks the model for a fresh question set.
type GenerateQuestionsRequest struct {
	Topic string              `json:"topic" validate:"required"`
	Count int                 `json:"count" validate:"omitempty,min=1,max=50"`
	Type  models.QuestionType `json:"type" validate:"omitempty,oneof=MCQ SHORT"`
}

// ExamService owns assessment definitions. Generated question sets are
// treated as untrusted input and validated before they replace anything.
type ExamService struct {
	exams     examRepository
	generator ai.Generator
	cache     dashboardCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs the exam service. cache may be nil.
func NewExamService(exams examRepository, generator ai.Generator, cache dashboardCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{exams: exams, generator: generator, cache: cache, validator: validate, logger: logger}
}

func (s *ExamService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

// List returns all exams with their attempt counts.
func (s *ExamService) List(ctx context.Context) ([]models.ExamSummary, error) {
	exams, err := s.exams.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, nil
}

// Get returns the full exam including answer keys. Admin only.
func (s *ExamService) Get(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return exam, nil
}

// GetPublic returns the candidate-facing exam view with answer keys
// stripped.
func (s *ExamService) GetPublic(ctx context.Context, id string) (*models.PublicExam, error) {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return exam.Public(), nil
}

// Create registers a new assessment. Difficulty defaults to MEDIUM and
// an exam may start with an empty question set.
func (s *ExamService) Create(ctx context.Context, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	questions := models.QuestionList(req.Questions)
	if err := validateQuestions(questions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	exam := &models.Exam{
		Title:       req.Title,
		CollegeName: req.CollegeName,
		TimeLimit:   req.TimeLimit,
		Difficulty:  difficulty,
		Questions:   questions,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	s.invalidateDashboard(ctx)
	return exam, nil
}

// Generate replaces the exam's question set with a model-generated one.
// The response is parsed and validated fail-closed: a malformed or
// partially valid set never reaches the database.
func (s *ExamService) Generate(ctx context.Context, id string, req GenerateQuestionsRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	if req.Count == 0 {
		req.Count = 10
	}
	if req.Type == "" {
		req.Type = models.QuestionTypeMCQ
	}

	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	raw, err := s.generator.Generate(ctx, generateQuestionsPrompt(exam, req))
	if err != nil {
		return nil, err
	}

	var questions models.QuestionList
	if err := json.Unmarshal([]byte(ai.StripFences(raw)), &questions); err != nil {
		s.logger.Warn("discarding malformed question payload", zap.String("exam_id", id), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrUpstream, "model returned malformed questions, please retry")
	}
	if len(questions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "model returned no questions, please retry")
	}
	if req.Type == models.QuestionTypeMCQ {
		if err := validateMCQs(questions); err != nil {
			s.logger.Warn("discarding invalid question payload", zap.String("exam_id", id), zap.Error(err))
			return nil, appErrors.Clone(appErrors.ErrUpstream, "model returned invalid questions, please retry")
		}
	} else if err := validateQuestions(questions); err != nil {
		s.logger.Warn("discarding invalid question payload", zap.String("exam_id", id), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrUpstream, "model returned invalid questions, please retry")
	}

	if err := s.exams.ReplaceQuestions(ctx, id, questions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save generated questions")
	}
	exam.Questions = questions
	s.invalidateDashboard(ctx)
	return exam, nil
}

func generateQuestionsPrompt(exam *models.Exam, req GenerateQuestionsRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d %s difficulty assessment questions on the topic %q for the exam %q.\n",
		req.Count, strings.ToLower(string(exam.Difficulty)), req.Topic, exam.Title)
	if req.Type == models.QuestionTypeMCQ {
		b.WriteString("Each question must be multiple choice with exactly 4 options, and \"answer\" must be one of the options verbatim.\n")
		b.WriteString("Respond with ONLY a JSON array, no prose, no markdown fences. Schema per element: {\"question\": string, \"options\": [string, string, string, string], \"answer\": string}.")
	} else {
		b.WriteString("Each question is short-answer with a single expected answer and no options.\n")
		b.WriteString("Respond with ONLY a JSON array, no prose, no markdown fences. Schema per element: {\"question\": string, \"answer\": string}.")
	}
	return b.String()
}

// validateMCQs enforces the multiple-choice contract on every entry.
func validateMCQs(questions models.QuestionList) error {
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("question %d: empty question text", i)
		}
		if len(q.Options) != 4 {
			return fmt.Errorf("question %d: expected 4 options, got %d", i, len(q.Options))
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.Answer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("question %d: answer is not one of the options", i)
		}
	}
	return nil
}

// validateQuestions accepts both MCQ and short-answer entries.
func validateQuestions(questions models.QuestionList) error {
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("question %d: empty question text", i)
		}
		if strings.TrimSpace(q.Answer) == "" {
			return fmt.Errorf("question %d: empty answer key", i)
		}
		if len(q.Options) > 0 {
			if len(q.Options) != 4 {
				return fmt.Errorf("question %d: expected 4 options, got %d", i, len(q.Options))
			}
			found := false
			for _, opt := range q.Options {
				if opt == q.Answer {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("question %d: answer is not one of the options", i)
			}
		}
	}
	return nil
}
