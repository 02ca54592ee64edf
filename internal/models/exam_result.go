package models

import (
	"time"

	"github.com/lib/pq"
)

// ResultStatus is the pass/fail outcome of an attempt.
type ResultStatus string

const (
	ResultPassed ResultStatus = "PASSED"
	ResultFailed ResultStatus = "FAILED"
)

// ExamResult records the outcome of one student's attempt at an exam.
// Rows are immutable after creation except for the audit note.
type ExamResult struct {
	ID            string         `db:"id" json:"id"`
	ExamID        string         `db:"exam_id" json:"exam_id"`
	StudentName   string         `db:"student_name" json:"student_name"`
	Email         string         `db:"email" json:"email"`
	Whatsapp      string         `db:"whatsapp" json:"whatsapp"`
	Score         int            `db:"score" json:"score"`
	Status        ResultStatus   `db:"status" json:"status"`
	SecurityFlags pq.StringArray `db:"security_flags" json:"security_flags"`
	AuditNote     string         `db:"audit_note" json:"audit_note"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}
