package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlab/careerlab-os/internal/models"
)

type mockExamRepo struct {
	exams    map[string]*models.Exam
	replaced map[string]models.QuestionList
}

func (m *mockExamRepo) List(ctx context.Context) ([]models.ExamSummary, error) {
	var summaries []models.ExamSummary
	for _, exam := range m.exams {
		summaries = append(summaries, models.ExamSummary{Exam: *exam})
	}
	return summaries, nil
}

func (m *mockExamRepo) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	if exam, ok := m.exams[id]; ok {
		return exam, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExamRepo) Create(ctx context.Context, exam *models.Exam) error {
	if m.exams == nil {
		m.exams = make(map[string]*models.Exam)
	}
	exam.ID = "exam-new"
	m.exams[exam.ID] = exam
	return nil
}

func (m *mockExamRepo) ReplaceQuestions(ctx context.Context, id string, questions models.QuestionList) error {
	if m.replaced == nil {
		m.replaced = make(map[string]models.QuestionList)
	}
	m.replaced[id] = questions
	return nil
}

// scriptedGenerator returns canned completions and records prompts.
type scriptedGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (s *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestExamServiceCreateDefaultsDifficulty(t *testing.T) {
	repo := &mockExamRepo{}
	svc := NewExamService(repo, &scriptedGenerator{}, nil, nil, nil)

	exam, err := svc.Create(context.Background(), CreateExamRequest{
		Title:       "Aptitude Round",
		CollegeName: "GGSIPU",
		TimeLimit:   30,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyMedium, exam.Difficulty)
	assert.Empty(t, exam.Questions)
}

func TestExamServiceCreateRejectsBadQuestions(t *testing.T) {
	svc := NewExamService(&mockExamRepo{}, &scriptedGenerator{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateExamRequest{
		Title:       "Aptitude Round",
		CollegeName: "GGSIPU",
		TimeLimit:   30,
		Questions: []models.Question{
			{Question: "Q1", Options: []string{"A", "B"}, Answer: "A"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 options")
}

func TestExamServiceGetPublicStripsAnswers(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]*models.Exam{"exam-1": {
		ID:    "exam-1",
		Title: "Aptitude Round",
		Questions: models.QuestionList{
			{Question: "Q1", Options: []string{"A", "B", "C", "D"}, Answer: "C"},
		},
	}}}
	svc := NewExamService(repo, &scriptedGenerator{}, nil, nil, nil)

	public, err := svc.GetPublic(context.Background(), "exam-1")
	require.NoError(t, err)
	require.Len(t, public.Questions, 1)
	assert.Equal(t, "Q1", public.Questions[0].Question)
	assert.Len(t, public.Questions[0].Options, 4)
}

func TestExamServiceGenerateStripsFences(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]*models.Exam{"exam-1": {ID: "exam-1", Title: "Aptitude Round", Difficulty: models.DifficultyMedium}}}
	gen := &scriptedGenerator{reply: "```json\n[{\"question\":\"Q1\",\"options\":[\"A\",\"B\",\"C\",\"D\"],\"answer\":\"B\"}]\n```"}
	svc := NewExamService(repo, gen, nil, nil, nil)

	exam, err := svc.Generate(context.Background(), "exam-1", GenerateQuestionsRequest{Topic: "logic", Count: 1})
	require.NoError(t, err)
	require.Len(t, exam.Questions, 1)
	assert.Equal(t, "B", exam.Questions[0].Answer)
	assert.Len(t, repo.replaced["exam-1"], 1)
}

func TestExamServiceGenerateFailsClosedOnMalformedJSON(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]*models.Exam{"exam-1": {ID: "exam-1", Title: "Aptitude Round", Difficulty: models.DifficultyMedium}}}
	gen := &scriptedGenerator{reply: "Sure! Here are your questions: 1. What is..."}
	svc := NewExamService(repo, gen, nil, nil, nil)

	_, err := svc.Generate(context.Background(), "exam-1", GenerateQuestionsRequest{Topic: "logic"})
	require.Error(t, err)
	assert.Empty(t, repo.replaced)
}

func TestExamServiceGenerateFailsClosedOnBadOptionCount(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]*models.Exam{"exam-1": {ID: "exam-1", Title: "Aptitude Round", Difficulty: models.DifficultyMedium}}}
	gen := &scriptedGenerator{reply: `[{"question":"Q1","options":["A","B"],"answer":"A"}]`}
	svc := NewExamService(repo, gen, nil, nil, nil)

	_, err := svc.Generate(context.Background(), "exam-1", GenerateQuestionsRequest{Topic: "logic"})
	require.Error(t, err)
	assert.Empty(t, repo.replaced)
}

func TestExamServiceGenerateFailsClosedOnAnswerNotInOptions(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]*models.Exam{"exam-1": {ID: "exam-1", Title: "Aptitude Round", Difficulty: models.DifficultyMedium}}}
	gen := &scriptedGenerator{reply: `[{"question":"Q1","options":["A","B","C","D"],"answer":"E"}]`}
	svc := NewExamService(repo, gen, nil, nil, nil)

	_, err := svc.Generate(context.Background(), "exam-1", GenerateQuestionsRequest{Topic: "logic"})
	require.Error(t, err)
	assert.Empty(t, repo.replaced)
}

func TestExamServiceGenerateEmptySetRejected(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]*models.Exam{"exam-1": {ID: "exam-1", Title: "Aptitude Round", Difficulty: models.DifficultyMedium}}}
	gen := &scriptedGenerator{reply: `[]`}
	svc := NewExamService(repo, gen, nil, nil, nil)

	_, err := svc.Generate(context.Background(), "exam-1", GenerateQuestionsRequest{Topic: "logic"})
	require.Error(t, err)
}

func TestExamWritesInvalidateDashboardCache(t *testing.T) {
	repo := &mockExamRepo{}
	cache := &mockDashboardInvalidator{}
	svc := NewExamService(repo, &scriptedGenerator{reply: `[{"question":"Q1","options":["A","B","C","D"],"answer":"A"}]`}, cache, nil, nil)

	exam, err := svc.Create(context.Background(), CreateExamRequest{
		Title:       "Aptitude Round",
		CollegeName: "GGSIPU",
		TimeLimit:   30,
	})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), exam.ID, GenerateQuestionsRequest{Topic: "aptitude"})
	require.NoError(t, err)

	require.Len(t, cache.patterns, 2)
	assert.Equal(t, "dashboard:*", cache.patterns[0])
	assert.Equal(t, "dashboard:*", cache.patterns[1])
}
