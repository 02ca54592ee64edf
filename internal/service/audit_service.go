package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/ai"
	"github.com/careerlab/careerlab-os/internal/models"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type auditResultRepository interface {
	FindByID(ctx context.Context, id string) (*models.ExamResult, error)
	ListByExam(ctx context.Context, examID string) ([]models.ExamResult, error)
	SaveAuditNote(ctx context.Context, id, note string) error
}

// AuditService produces an integrity assessment for a finished attempt.
// The note is advisory prose for the reviewing admin; it never changes the
// recorded score or pass/fail status.
type AuditService struct {
	results   auditResultRepository
	generator ai.Generator
	logger    *zap.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(results auditResultRepository, generator ai.Generator, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{results: results, generator: generator, logger: logger}
}

// ListByExam returns every recorded attempt for an exam.
func (s *AuditService) ListByExam(ctx context.Context, examID string) ([]models.ExamResult, error) {
	results, err := s.results.ListByExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}

// Audit generates and persists an integrity note for one result.
func (s *AuditService) Audit(ctx context.Context, resultID string) (*models.ExamResult, error) {
	result, err := s.results.FindByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}

	note, err := s.generator.Generate(ctx, auditPrompt(result))
	if err != nil {
		return nil, err
	}
	note = strings.TrimSpace(ai.StripFences(note))

	if err := s.results.SaveAuditNote(ctx, resultID, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save audit note")
	}
	result.AuditNote = note
	return result, nil
}

func auditPrompt(result *models.ExamResult) string {
	flags := "none"
	if len(result.SecurityFlags) > 0 {
		flags = strings.Join(result.SecurityFlags, "; ")
	}
	return fmt.Sprintf(`You are an exam integrity auditor.
Candidate: %s
Score: %d/100 (%s)
Proctoring violations recorded during the attempt: %s

In 2-3 sentences, assess how trustworthy this result is and whether the violations suggest malpractice. Be factual; do not invent events not listed.`,
		result.StudentName, result.Score, result.Status, flags)
}
