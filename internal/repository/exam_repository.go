package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careerlab/careerlab-os/internal/models"
)

// ExamRepository manages assessment definitions.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// List returns all exams newest-first with their attempt counts.
func (r *ExamRepository) List(ctx context.Context) ([]models.ExamSummary, error) {
	const query = `SELECT e.id, e.title, e.college_name, e.time_limit, e.difficulty, e.questions, e.created_at, e.updated_at,
        COUNT(r.id) AS result_count
        FROM exams e
        LEFT JOIN exam_results r ON r.exam_id = e.id
        GROUP BY e.id
        ORDER BY e.created_at DESC`
	var exams []models.ExamSummary
	if err := r.db.SelectContext(ctx, &exams, query); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// FindByID fetches one exam including its question sequence.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	const query = `SELECT id, title, college_name, time_limit, difficulty, questions, created_at, updated_at
        FROM exams WHERE id = $1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = now
	const query = `INSERT INTO exams (id, title, college_name, time_limit, difficulty, questions, created_at, updated_at)
        VALUES (:id, :title, :college_name, :time_limit, :difficulty, :questions, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// ReplaceQuestions swaps the entire question sequence. Generation always
// replaces, never appends.
func (r *ExamRepository) ReplaceQuestions(ctx context.Context, id string, questions models.QuestionList) error {
	const query = `UPDATE exams SET questions = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, questions, time.Now().UTC()); err != nil {
		return fmt.Errorf("replace exam questions: %w", err)
	}
	return nil
}
