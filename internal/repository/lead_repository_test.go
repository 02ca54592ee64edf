package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlab/careerlab-os/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func leadRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "phone", "status", "score", "persona", "source_domain", "ai_summary", "created_at", "updated_at"})
}

func TestLeadFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	now := time.Now()
	rows := leadRows().
		AddRow("lead-1", "Priya", "priya@example.com", "9876543210", string(models.LeadStatusNew), 10, nil, "manual_entry", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, phone, status, score, persona, source_domain, ai_summary, created_at, updated_at FROM leads WHERE id = $1")).
		WithArgs("lead-1").
		WillReturnRows(rows)

	lead, err := repo.FindByID(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "priya@example.com", lead.Email)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadListWithStatusFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	now := time.Now()
	status := models.LeadStatusHot
	listRows := leadRows().
		AddRow("lead-1", "Priya", "priya@example.com", "", string(status), 82, nil, "manual_entry", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, phone, status, score, persona, source_domain, ai_summary, created_at, updated_at FROM leads WHERE 1=1 AND status = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(status).
		WillReturnRows(listRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leads WHERE 1=1 AND status = $1")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	leads, total, err := repo.List(context.Background(), models.LeadFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectExec("INSERT INTO leads").WillReturnResult(sqlmock.NewResult(1, 1))

	lead := &models.Lead{Name: "Priya", Email: "priya@example.com", Status: models.LeadStatusNew, Score: 10, SourceDomain: "manual_entry"}
	require.NoError(t, repo.Create(context.Background(), lead))
	assert.NotEmpty(t, lead.ID)
	assert.False(t, lead.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimQualified(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	now := time.Now()
	rows := leadRows().
		AddRow("lead-1", "Priya", "priya@example.com", "", string(models.LeadStatusProcessing), 82, nil, "site", nil, now, now).
		AddRow("lead-2", "Arjun", "arjun@example.com", "", string(models.LeadStatusProcessing), 75, nil, "site", nil, now, now)
	mock.ExpectQuery("UPDATE leads SET status").
		WithArgs(models.LeadStatusProcessing, sqlmock.AnyArg(), models.LeadStatusNew, 40, 5).
		WillReturnRows(rows)

	leads, err := repo.ClaimQualified(context.Background(), 40, 5)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, models.LeadStatusProcessing, leads[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE leads SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("lead-1", models.LeadStatusHot, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetStatus(context.Background(), "lead-1", models.LeadStatusHot))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentSnapshot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	now := time.Now()
	rows := leadRows().
		AddRow("lead-9", "Newest", "new@example.com", "", string(models.LeadStatusNew), 10, nil, "site", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, phone, status, score, persona, source_domain, ai_summary, created_at, updated_at FROM leads ORDER BY created_at DESC LIMIT $1")).
		WithArgs(5).
		WillReturnRows(rows)

	leads, err := repo.RecentSnapshot(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
