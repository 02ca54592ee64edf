package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlab/careerlab-os/internal/models"
)

func TestResultCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamResultRepository(db)

	mock.ExpectExec("INSERT INTO exam_results").WillReturnResult(sqlmock.NewResult(1, 1))

	result := &models.ExamResult{
		ExamID:        "exam-1",
		StudentName:   "Priya",
		Email:         "priya@example.com",
		Score:         75,
		Status:        models.ResultPassed,
		SecurityFlags: pq.StringArray{"Tab Switch at 10:02:11"},
	}
	require.NoError(t, repo.Create(context.Background(), result))
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultListByExam(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamResultRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "exam_id", "student_name", "email", "whatsapp", "score", "status", "security_flags", "audit_note", "created_at"}).
		AddRow("result-1", "exam-1", "Priya", "priya@example.com", "", 75, string(models.ResultPassed), []byte(`{}`), "", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, exam_id, student_name, email, whatsapp, score, status, security_flags, audit_note, created_at FROM exam_results WHERE exam_id = $1 ORDER BY created_at DESC")).
		WithArgs("exam-1").
		WillReturnRows(rows)

	results, err := repo.ListByExam(context.Background(), "exam-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 75, results[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAuditNote(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamResultRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE exam_results SET audit_note = $2 WHERE id = $1")).
		WithArgs("result-1", "Clean attempt.").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveAuditNote(context.Background(), "result-1", "Clean attempt."))
	assert.NoError(t, mock.ExpectationsWereMet())
}
