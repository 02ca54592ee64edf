package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType selects the shape of generated questions.
type QuestionType string

const (
	QuestionTypeMCQ   QuestionType = "MCQ"
	QuestionTypeShort QuestionType = "SHORT"
)

// ExamDifficulty grades an assessment.
type ExamDifficulty string

const (
	DifficultyEasy   ExamDifficulty = "EASY"
	DifficultyMedium ExamDifficulty = "MEDIUM"
	DifficultyHard   ExamDifficulty = "HARD"
)

// Question is one entry in an exam's ordered question sequence.
// Multiple-choice questions carry four options; short-answer questions
// carry none.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer"`
}

// QuestionList stores the ordered question sequence as a JSONB column.
type QuestionList []Question

// Value implements driver.Valuer.
func (q QuestionList) Value() (driver.Value, error) {
	if q == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (q *QuestionList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*q = nil
		return nil
	case []byte:
		return json.Unmarshal(v, q)
	case string:
		return json.Unmarshal([]byte(v), q)
	default:
		return fmt.Errorf("unsupported questions column type %T", src)
	}
}

// Exam is an assessment definition owned by a client college.
type Exam struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	CollegeName string         `db:"college_name" json:"college_name"`
	TimeLimit   int            `db:"time_limit" json:"time_limit"`
	Difficulty  ExamDifficulty `db:"difficulty" json:"difficulty"`
	Questions   QuestionList   `db:"questions" json:"questions"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ExamSummary is the admin list row including attempt volume.
type ExamSummary struct {
	Exam
	ResultCount int `db:"result_count" json:"result_count"`
}

// PublicQuestion is a question with the answer key stripped, safe to ship
// to a candidate before submission.
type PublicQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
}

// PublicExam is the candidate-facing view of an exam.
type PublicExam struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	CollegeName string           `json:"college_name"`
	TimeLimit   int              `json:"time_limit"`
	Difficulty  ExamDifficulty   `json:"difficulty"`
	Questions   []PublicQuestion `json:"questions"`
}

// Public strips answer keys from the exam.
func (e *Exam) Public() *PublicExam {
	questions := make([]PublicQuestion, 0, len(e.Questions))
	for _, q := range e.Questions {
		questions = append(questions, PublicQuestion{Question: q.Question, Options: q.Options})
	}
	return &PublicExam{
		ID:          e.ID,
		Title:       e.Title,
		CollegeName: e.CollegeName,
		TimeLimit:   e.TimeLimit,
		Difficulty:  e.Difficulty,
		Questions:   questions,
	}
}
