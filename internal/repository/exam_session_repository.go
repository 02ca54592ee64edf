package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careerlab/careerlab-os/internal/models"
)

// ExamSessionRepository persists proctored attempt sessions. The status
// column carries the state machine; every transition is a conditional
// update so concurrent writers cannot double-fire one.
type ExamSessionRepository struct {
	db *sqlx.DB
}

// NewExamSessionRepository constructs an ExamSessionRepository.
func NewExamSessionRepository(db *sqlx.DB) *ExamSessionRepository {
	return &ExamSessionRepository{db: db}
}

const sessionColumns = "id, exam_id, student_name, email, whatsapp, status, started_at, deadline, answers, security_flags, result_id, created_at, updated_at"

// Create inserts a new ACTIVE session.
func (r *ExamSessionRepository) Create(ctx context.Context, session *models.ExamSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	const query = `INSERT INTO exam_sessions (id, exam_id, student_name, email, whatsapp, status, started_at, deadline, answers, security_flags, result_id, created_at, updated_at)
        VALUES (:id, :exam_id, :student_name, :email, :whatsapp, :status, :started_at, :deadline, :answers, :security_flags, :result_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create exam session: %w", err)
	}
	return nil
}

// FindByID fetches one session.
func (r *ExamSessionRepository) FindByID(ctx context.Context, id string) (*models.ExamSession, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_sessions WHERE id = $1", sessionColumns)
	var session models.ExamSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// SetAnswer records a single answer, last write wins per question index.
// The update is rejected once the session left ACTIVE or passed its
// deadline; the bool reports whether the write landed.
func (r *ExamSessionRepository) SetAnswer(ctx context.Context, id string, index int, answer string, now time.Time) (bool, error) {
	const query = `UPDATE exam_sessions
        SET answers = jsonb_set(COALESCE(answers, '{}'::jsonb), ARRAY[$2::text], to_jsonb($3::text), true), updated_at = $4
        WHERE id = $1 AND status = $5 AND deadline > $4`
	res, err := r.db.ExecContext(ctx, query, id, fmt.Sprintf("%d", index), answer, now, models.SessionActive)
	if err != nil {
		return false, fmt.Errorf("set session answer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set session answer rows: %w", err)
	}
	return affected == 1, nil
}

// AppendFlag appends one integrity flag while the session is ACTIVE and
// the flag log is below maxFlags. Returns whether the append landed.
func (r *ExamSessionRepository) AppendFlag(ctx context.Context, id, flag string, maxFlags int, now time.Time) (bool, error) {
	const query = `UPDATE exam_sessions
        SET security_flags = array_append(security_flags, $2), updated_at = $3
        WHERE id = $1 AND status = $4 AND COALESCE(array_length(security_flags, 1), 0) < $5`
	res, err := r.db.ExecContext(ctx, query, id, flag, now, models.SessionActive, maxFlags)
	if err != nil {
		return false, fmt.Errorf("append session flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append session flag rows: %w", err)
	}
	return affected == 1, nil
}

// AppendTruncationMarker records that the flag log hit its cap. The exact
// length predicate makes the marker land at most once.
func (r *ExamSessionRepository) AppendTruncationMarker(ctx context.Context, id, marker string, maxFlags int, now time.Time) error {
	const query = `UPDATE exam_sessions
        SET security_flags = array_append(security_flags, $2), updated_at = $3
        WHERE id = $1 AND COALESCE(array_length(security_flags, 1), 0) = $4`
	if _, err := r.db.ExecContext(ctx, query, id, marker, now, maxFlags); err != nil {
		return fmt.Errorf("append truncation marker: %w", err)
	}
	return nil
}

// BeginSubmission attempts the ACTIVE -> SUBMITTING transition. Exactly
// one of any number of concurrent submitters observes true.
func (r *ExamSessionRepository) BeginSubmission(ctx context.Context, id string, now time.Time) (bool, error) {
	const query = `UPDATE exam_sessions SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.SessionSubmitting, now, models.SessionActive)
	if err != nil {
		return false, fmt.Errorf("begin submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("begin submission rows: %w", err)
	}
	return affected == 1, nil
}

// FinishSubmission completes SUBMITTING -> SUBMITTED and links the result.
func (r *ExamSessionRepository) FinishSubmission(ctx context.Context, id, resultID string, now time.Time) error {
	const query = `UPDATE exam_sessions SET status = $2, result_id = $3, updated_at = $4 WHERE id = $1 AND status = $5`
	if _, err := r.db.ExecContext(ctx, query, id, models.SessionSubmitted, resultID, now, models.SessionSubmitting); err != nil {
		return fmt.Errorf("finish submission: %w", err)
	}
	return nil
}

// ReleaseSubmission reverts SUBMITTING -> ACTIVE after a grading failure
// so the candidate can retry manually.
func (r *ExamSessionRepository) ReleaseSubmission(ctx context.Context, id string, now time.Time) error {
	const query = `UPDATE exam_sessions SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	if _, err := r.db.ExecContext(ctx, query, id, models.SessionActive, now, models.SessionSubmitting); err != nil {
		return fmt.Errorf("release submission: %w", err)
	}
	return nil
}

// ListOverdue returns ACTIVE sessions whose deadline (plus grace) has
// passed, oldest deadline first.
func (r *ExamSessionRepository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]models.ExamSession, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_sessions WHERE status = $1 AND deadline < $2 ORDER BY deadline ASC LIMIT $3", sessionColumns)
	var sessions []models.ExamSession
	if err := r.db.SelectContext(ctx, &sessions, query, models.SessionActive, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list overdue sessions: %w", err)
	}
	return sessions, nil
}
