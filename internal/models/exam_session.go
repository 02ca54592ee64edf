package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// SessionStatus drives the proctored session state machine.
type SessionStatus string

const (
	SessionActive     SessionStatus = "ACTIVE"
	SessionSubmitting SessionStatus = "SUBMITTING"
	SessionSubmitted  SessionStatus = "SUBMITTED"
	SessionExpired    SessionStatus = "EXPIRED"
)

// AnswerMap maps a question index (as a decimal string, matching the JSON
// wire shape) to the candidate's chosen answer. Last write wins per index.
type AnswerMap map[string]string

// Value implements driver.Valuer.
func (a AnswerMap) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (a *AnswerMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported answers column type %T", src)
	}
}

// ExamSession is one candidate's server-tracked proctored attempt. The
// session owns the countdown deadline, the answer map and the ordered
// integrity-flag log until submission produces an ExamResult.
type ExamSession struct {
	ID            string         `db:"id" json:"id"`
	ExamID        string         `db:"exam_id" json:"exam_id"`
	StudentName   string         `db:"student_name" json:"student_name"`
	Email         string         `db:"email" json:"email"`
	Whatsapp      string         `db:"whatsapp" json:"whatsapp"`
	Status        SessionStatus  `db:"status" json:"status"`
	StartedAt     time.Time      `db:"started_at" json:"started_at"`
	Deadline      time.Time      `db:"deadline" json:"deadline"`
	Answers       AnswerMap      `db:"answers" json:"answers"`
	SecurityFlags pq.StringArray `db:"security_flags" json:"security_flags"`
	ResultID      *string        `db:"result_id" json:"result_id,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// RemainingSeconds reports the countdown value at the given instant,
// clamped at zero.
func (s *ExamSession) RemainingSeconds(now time.Time) int {
	remaining := int(s.Deadline.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
