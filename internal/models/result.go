package models

import "time"

// DefaultScoreOutOf is applied when a result row carries no maximum.
const DefaultScoreOutOf = 100

// RawResultRow is one student's score for one subject in one exam.
// Rows are owned by the persistence layer and read-only for analysis.
type RawResultRow struct {
	ExamID        string    `db:"exam_id" json:"exam_id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	ClassStreamID *string   `db:"class_stream_id" json:"class_stream_id,omitempty"`
	StudentID     string    `db:"student_id" json:"student_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	Score         *float64  `db:"score" json:"score"`
	ScoreOutOf    float64   `db:"score_outof" json:"score_outof"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ResultHistoryFilter selects prior result rows used for deviation lookups.
type ResultHistoryFilter struct {
	StudentIDs    []string
	SubjectIDs    []string
	ExcludeExamID string
	Before        time.Time
}
