package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

// ClassRepository manages persistence for classes and their streams.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns a class by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListStreams returns the streams of a class ordered by name.
func (r *ClassRepository) ListStreams(ctx context.Context, classID string) ([]models.ClassStream, error) {
	const query = `SELECT id, class_id, name, created_at FROM class_streams WHERE class_id = $1 ORDER BY name, id`
	var streams []models.ClassStream
	if err := r.db.SelectContext(ctx, &streams, query, classID); err != nil {
		return nil, fmt.Errorf("list class streams: %w", err)
	}
	return streams, nil
}
