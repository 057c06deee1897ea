package models

import "time"

// Subject represents an academic subject together with its grading system.
type Subject struct {
	ID              string         `db:"id" json:"id"`
	Code            string         `db:"code" json:"code"`
	Name            string         `db:"name" json:"name"`
	GradingSystemID *string        `db:"grading_system_id" json:"grading_system_id,omitempty"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	GradingSystem   *GradingSystem `db:"-" json:"grading_system,omitempty"`
}

// SubjectTeacher is the first teacher assigned to a subject.
type SubjectTeacher struct {
	SubjectID   string `db:"subject_id" json:"subject_id"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
