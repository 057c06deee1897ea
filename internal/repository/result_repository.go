package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

const resultColumns = "exam_id, class_id, class_stream_id, student_id, subject_id, score, score_outof, created_at"

// ResultRepository reads raw exam results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs a ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// ListByExamClass returns every result row of an exam for one class in insertion order.
func (r *ResultRepository) ListByExamClass(ctx context.Context, examID, classID string) ([]models.RawResultRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_results
        WHERE exam_id = $1 AND class_id = $2 ORDER BY created_at, student_id, subject_id`, resultColumns)
	var rows []models.RawResultRow
	if err := r.db.SelectContext(ctx, &rows, query, examID, classID); err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	return rows, nil
}

// ListHistory returns earlier rows for the given students and subjects across all exams.
func (r *ResultRepository) ListHistory(ctx context.Context, filter models.ResultHistoryFilter) ([]models.RawResultRow, error) {
	if len(filter.StudentIDs) == 0 || len(filter.SubjectIDs) == 0 {
		return []models.RawResultRow{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM exam_results
        WHERE student_id = ANY($1) AND subject_id = ANY($2)`, resultColumns)
	args := []interface{}{pq.Array(filter.StudentIDs), pq.Array(filter.SubjectIDs)}
	if filter.ExcludeExamID != "" {
		query += fmt.Sprintf(" AND exam_id <> $%d", len(args)+1)
		args = append(args, filter.ExcludeExamID)
	}
	if !filter.Before.IsZero() {
		query += fmt.Sprintf(" AND created_at < $%d", len(args)+1)
		args = append(args, filter.Before)
	}
	query += " ORDER BY created_at DESC"

	var rows []models.RawResultRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list result history: %w", err)
	}
	return rows, nil
}
