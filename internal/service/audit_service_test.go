package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlab/careerlab-os/internal/models"
)

type mockAuditResults struct {
	results map[string]*models.ExamResult
	notes   map[string]string
}

func (m *mockAuditResults) FindByID(ctx context.Context, id string) (*models.ExamResult, error) {
	if r, ok := m.results[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuditResults) ListByExam(ctx context.Context, examID string) ([]models.ExamResult, error) {
	var list []models.ExamResult
	for _, r := range m.results {
		if r.ExamID == examID {
			list = append(list, *r)
		}
	}
	return list, nil
}

func (m *mockAuditResults) SaveAuditNote(ctx context.Context, id, note string) error {
	if m.notes == nil {
		m.notes = make(map[string]string)
	}
	m.notes[id] = note
	return nil
}

func TestAuditPersistsNoteAndKeepsScore(t *testing.T) {
	store := &mockAuditResults{results: map[string]*models.ExamResult{
		"result-1": {
			ID: "result-1", ExamID: "exam-1", StudentName: "Priya",
			Score: 85, Status: models.ResultPassed,
			SecurityFlags: []string{"Tab Switch at 10:02:11", "Fullscreen Exit at 10:05:40"},
		},
	}}
	gen := &scriptedGenerator{reply: "```\nTwo violations in four minutes; treat with caution.\n```"}
	svc := NewAuditService(store, gen, nil)

	result, err := svc.Audit(context.Background(), "result-1")
	require.NoError(t, err)
	assert.Equal(t, "Two violations in four minutes; treat with caution.", result.AuditNote)
	assert.Equal(t, result.AuditNote, store.notes["result-1"])
	assert.Equal(t, 85, result.Score)
	assert.Equal(t, models.ResultPassed, result.Status)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Tab Switch at 10:02:11")
}

func TestAuditCleanAttemptPromptSaysNone(t *testing.T) {
	store := &mockAuditResults{results: map[string]*models.ExamResult{
		"result-1": {ID: "result-1", ExamID: "exam-1", StudentName: "Arjun", Score: 60, Status: models.ResultPassed},
	}}
	gen := &scriptedGenerator{reply: "Clean attempt."}
	svc := NewAuditService(store, gen, nil)

	_, err := svc.Audit(context.Background(), "result-1")
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "none")
}

func TestAuditUnknownResult(t *testing.T) {
	svc := NewAuditService(&mockAuditResults{}, &scriptedGenerator{}, nil)

	_, err := svc.Audit(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result not found")
}

func TestAuditListByExam(t *testing.T) {
	store := &mockAuditResults{results: map[string]*models.ExamResult{
		"result-1": {ID: "result-1", ExamID: "exam-1"},
		"result-2": {ID: "result-2", ExamID: "exam-2"},
	}}
	svc := NewAuditService(store, &scriptedGenerator{}, nil)

	results, err := svc.ListByExam(context.Background(), "exam-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "result-1", results[0].ID)
}
