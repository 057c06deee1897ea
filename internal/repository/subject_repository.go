package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListAll returns the full subject catalog ordered by name. GradingSystem is not populated.
func (r *SubjectRepository) ListAll(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, code, name, grading_system_id, is_active, created_at FROM subjects ORDER BY name, id`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FirstTeachers returns, per subject, the earliest assigned teacher across all classes.
func (r *SubjectRepository) FirstTeachers(ctx context.Context) ([]models.SubjectTeacher, error) {
	const query = `SELECT DISTINCT ON (ta.subject_id) ta.subject_id, t.full_name AS teacher_name
        FROM teacher_assignments ta
        JOIN teachers t ON t.id = ta.teacher_id
        ORDER BY ta.subject_id, ta.created_at ASC, ta.id ASC`
	var teachers []models.SubjectTeacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list subject teachers: %w", err)
	}
	return teachers, nil
}
