package models

import "time"

// Exam identifies one sitting of an assessment for a class.
type Exam struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	ClassID   string     `db:"class_id" json:"class_id"`
	TermID    *string    `db:"term_id" json:"term_id,omitempty"`
	ExamDate  *time.Time `db:"exam_date" json:"exam_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// ExamFilter scopes exam listings.
type ExamFilter struct {
	ClassID string
	Limit   int
}
