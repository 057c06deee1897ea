package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

const examColumns = "id, name, class_id, term_id, exam_date, created_at"

// ExamRepository reads exam metadata.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// FindByID returns an exam by ID.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE id = $1", examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// ListPrior returns exams of the same class created before the given exam,
// most recent first.
func (r *ExamRepository) ListPrior(ctx context.Context, exam models.Exam, limit int) ([]models.Exam, error) {
	if limit <= 0 {
		limit = 4
	}
	query := fmt.Sprintf(`SELECT %s FROM exams
        WHERE class_id = $1 AND id <> $2 AND created_at < $3
        ORDER BY created_at DESC LIMIT $4`, examColumns)
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, exam.ClassID, exam.ID, exam.CreatedAt, limit); err != nil {
		return nil, fmt.Errorf("list prior exams: %w", err)
	}
	return exams, nil
}

// ListRecent returns the latest exams, optionally scoped to a class.
func (r *ExamRepository) ListRecent(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	query := fmt.Sprintf("SELECT %s FROM exams", examColumns)
	args := []interface{}{}
	if filter.ClassID != "" {
		query += fmt.Sprintf(" WHERE class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, fmt.Errorf("list recent exams: %w", err)
	}
	return exams, nil
}
