package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlab/careerlab-os/internal/models"
)

type mockGradingExams struct {
	exams map[string]*models.Exam
}

func (m *mockGradingExams) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	if exam, ok := m.exams[id]; ok {
		return exam, nil
	}
	return nil, sql.ErrNoRows
}

type mockResultStore struct {
	created []models.ExamResult
	failErr error
}

func (m *mockResultStore) Create(ctx context.Context, result *models.ExamResult) error {
	if m.failErr != nil {
		return m.failErr
	}
	result.ID = "res-1"
	m.created = append(m.created, *result)
	return nil
}

type mockNotifierQueue struct {
	sent    []ResultNotification
	failErr error
}

func (m *mockNotifierQueue) Notify(n ResultNotification) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.sent = append(m.sent, n)
	return nil
}

func fourQuestionExam() *models.Exam {
	return &models.Exam{
		ID:    "exam-1",
		Title: "Aptitude Round",
		Questions: models.QuestionList{
			{Question: "Q1", Options: []string{"A", "B", "C", "D"}, Answer: "A"},
			{Question: "Q2", Options: []string{"A", "B", "C", "D"}, Answer: "B"},
			{Question: "Q3", Options: []string{"A", "B", "C", "D"}, Answer: "C"},
			{Question: "Q4", Options: []string{"A", "B", "C", "D"}, Answer: "D"},
		},
	}
}

func TestGradingServiceScoresStrictMatches(t *testing.T) {
	exams := &mockGradingExams{exams: map[string]*models.Exam{"exam-1": fourQuestionExam()}}
	results := &mockResultStore{}
	notifier := &mockNotifierQueue{}
	svc := NewGradingService(exams, results, notifier, nil, nil, 50)

	result, err := svc.Grade(context.Background(), SubmitExamRequest{
		ExamID:      "exam-1",
		StudentName: "Priya",
		Email:       "priya@example.com",
		Answers:     models.AnswerMap{"0": "A", "1": "B", "2": "X", "3": "D"},
	})
	require.NoError(t, err)
	assert.Equal(t, 75, result.Score)
	assert.Equal(t, models.ResultPassed, result.Status)
	require.Len(t, results.created, 1)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "priya@example.com", notifier.sent[0].To)
	assert.Equal(t, 75, notifier.sent[0].Score)
}

func TestGradingServicePassBoundary(t *testing.T) {
	cases := []struct {
		name    string
		answers models.AnswerMap
		score   int
		status  models.ResultStatus
	}{
		{"below threshold", models.AnswerMap{"0": "A"}, 25, models.ResultFailed},
		{"at threshold", models.AnswerMap{"0": "A", "1": "B"}, 50, models.ResultPassed},
		{"above threshold", models.AnswerMap{"0": "A", "1": "B", "2": "C"}, 75, models.ResultPassed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exams := &mockGradingExams{exams: map[string]*models.Exam{"exam-1": fourQuestionExam()}}
			svc := NewGradingService(exams, &mockResultStore{}, &mockNotifierQueue{}, nil, nil, 50)

			result, err := svc.Grade(context.Background(), SubmitExamRequest{
				ExamID:      "exam-1",
				StudentName: "Priya",
				Email:       "priya@example.com",
				Answers:     tc.answers,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.score, result.Score)
			assert.Equal(t, tc.status, result.Status)
		})
	}
}

func TestGradingServiceEmptyExamScoresZero(t *testing.T) {
	exams := &mockGradingExams{exams: map[string]*models.Exam{"exam-1": {ID: "exam-1", Title: "Empty"}}}
	svc := NewGradingService(exams, &mockResultStore{}, &mockNotifierQueue{}, nil, nil, 50)

	result, err := svc.Grade(context.Background(), SubmitExamRequest{
		ExamID:      "exam-1",
		StudentName: "Priya",
		Email:       "priya@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, models.ResultFailed, result.Status)
}

func TestGradingServiceDeterministic(t *testing.T) {
	exams := &mockGradingExams{exams: map[string]*models.Exam{"exam-1": fourQuestionExam()}}
	results := &mockResultStore{}
	svc := NewGradingService(exams, results, &mockNotifierQueue{}, nil, nil, 50)

	req := SubmitExamRequest{
		ExamID:      "exam-1",
		StudentName: "Priya",
		Email:       "priya@example.com",
		Answers:     models.AnswerMap{"0": "A", "1": "B"},
	}
	first, err := svc.Grade(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Grade(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Status, second.Status)
}

func TestGradingServicePersistsBeforeNotify(t *testing.T) {
	exams := &mockGradingExams{exams: map[string]*models.Exam{"exam-1": fourQuestionExam()}}
	results := &mockResultStore{}
	notifier := &mockNotifierQueue{failErr: errors.New("queue stopped")}
	svc := NewGradingService(exams, results, notifier, nil, nil, 50)

	result, err := svc.Grade(context.Background(), SubmitExamRequest{
		ExamID:      "exam-1",
		StudentName: "Priya",
		Email:       "priya@example.com",
		Answers:     models.AnswerMap{"0": "A", "1": "B", "2": "C", "3": "D"},
	})
	require.NoError(t, err)
	assert.Len(t, results.created, 1)
	assert.Equal(t, 100, result.Score)
}

func TestGradingServiceStoresFlags(t *testing.T) {
	exams := &mockGradingExams{exams: map[string]*models.Exam{"exam-1": fourQuestionExam()}}
	results := &mockResultStore{}
	svc := NewGradingService(exams, results, &mockNotifierQueue{}, nil, nil, 50)

	_, err := svc.Grade(context.Background(), SubmitExamRequest{
		ExamID:      "exam-1",
		StudentName: "Priya",
		Email:       "priya@example.com",
		Flags:       []string{"Tab Switch at 10:01:02", "Window Blur at 10:02:30"},
	})
	require.NoError(t, err)
	require.Len(t, results.created, 1)
	assert.Len(t, results.created[0].SecurityFlags, 2)
}

func TestGradingServiceExamNotFound(t *testing.T) {
	svc := NewGradingService(&mockGradingExams{}, &mockResultStore{}, &mockNotifierQueue{}, nil, nil, 50)

	_, err := svc.Grade(context.Background(), SubmitExamRequest{
		ExamID:      "missing",
		StudentName: "Priya",
		Email:       "priya@example.com",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exam not found")
}
