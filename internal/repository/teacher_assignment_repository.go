package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

// TeacherAssignmentRepository reads teacher-class-subject assignments.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// ListByUser returns assignments of the teacher behind a login account.
func (r *TeacherAssignmentRepository) ListByUser(ctx context.Context, userID string) ([]models.TeacherAssignment, error) {
	const query = `
SELECT ta.teacher_id, t.user_id, ta.class_id, c.name AS class_name, ta.subject_id, s.name AS subject_name
FROM teacher_assignments ta
JOIN teachers t ON t.id = ta.teacher_id
JOIN classes c ON c.id = ta.class_id
JOIN subjects s ON s.id = ta.subject_id
WHERE t.user_id = $1
ORDER BY c.name ASC, s.name ASC`
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, userID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}
