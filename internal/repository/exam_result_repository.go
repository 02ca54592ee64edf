package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careerlab/careerlab-os/internal/models"
)

// ExamResultRepository persists graded attempt outcomes.
type ExamResultRepository struct {
	db *sqlx.DB
}

// NewExamResultRepository constructs an ExamResultRepository.
func NewExamResultRepository(db *sqlx.DB) *ExamResultRepository {
	return &ExamResultRepository{db: db}
}

const resultColumns = "id, exam_id, student_name, email, whatsapp, score, status, security_flags, audit_note, created_at"

// Create inserts a graded result. Results are immutable afterwards except
// for the audit note.
func (r *ExamResultRepository) Create(ctx context.Context, result *models.ExamResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exam_results (id, exam_id, student_name, email, whatsapp, score, status, security_flags, audit_note, created_at)
        VALUES (:id, :exam_id, :student_name, :email, :whatsapp, :score, :status, :security_flags, :audit_note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create exam result: %w", err)
	}
	return nil
}

// FindByID fetches a single result.
func (r *ExamResultRepository) FindByID(ctx context.Context, id string) (*models.ExamResult, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_results WHERE id = $1", resultColumns)
	var result models.ExamResult
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListByExam returns all attempts for an exam, newest first.
func (r *ExamResultRepository) ListByExam(ctx context.Context, examID string) ([]models.ExamResult, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_results WHERE exam_id = $1 ORDER BY created_at DESC", resultColumns)
	var results []models.ExamResult
	if err := r.db.SelectContext(ctx, &results, query, examID); err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	return results, nil
}

// SaveAuditNote attaches the behavioral audit narrative to a result.
func (r *ExamResultRepository) SaveAuditNote(ctx context.Context, id, note string) error {
	const query = `UPDATE exam_results SET audit_note = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, note); err != nil {
		return fmt.Errorf("save audit note: %w", err)
	}
	return nil
}
