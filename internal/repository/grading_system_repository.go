package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

// GradingSystemRepository reads grading systems together with their bands.
type GradingSystemRepository struct {
	db *sqlx.DB
}

// NewGradingSystemRepository creates a new repository instance.
func NewGradingSystemRepository(db *sqlx.DB) *GradingSystemRepository {
	return &GradingSystemRepository{db: db}
}

// List returns every grading system with bands loaded.
func (r *GradingSystemRepository) List(ctx context.Context) ([]models.GradingSystem, error) {
	const query = `SELECT id, name, is_default FROM grading_systems ORDER BY name`
	var systems []models.GradingSystem
	if err := r.db.SelectContext(ctx, &systems, query); err != nil {
		return nil, fmt.Errorf("list grading systems: %w", err)
	}
	if err := r.attachScales(ctx, systems); err != nil {
		return nil, err
	}
	return systems, nil
}

// FindByID returns a grading system by ID with bands.
func (r *GradingSystemRepository) FindByID(ctx context.Context, id string) (*models.GradingSystem, error) {
	const query = `SELECT id, name, is_default FROM grading_systems WHERE id = $1`
	var system models.GradingSystem
	if err := r.db.GetContext(ctx, &system, query, id); err != nil {
		return nil, err
	}
	systems := []models.GradingSystem{system}
	if err := r.attachScales(ctx, systems); err != nil {
		return nil, err
	}
	return &systems[0], nil
}

// FindDefault returns the school's default grading system.
func (r *GradingSystemRepository) FindDefault(ctx context.Context) (*models.GradingSystem, error) {
	const query = `SELECT id, name, is_default FROM grading_systems WHERE is_default = TRUE LIMIT 1`
	var system models.GradingSystem
	if err := r.db.GetContext(ctx, &system, query); err != nil {
		return nil, err
	}
	systems := []models.GradingSystem{system}
	if err := r.attachScales(ctx, systems); err != nil {
		return nil, err
	}
	return &systems[0], nil
}

// ListByIDs returns the requested grading systems keyed by ID.
func (r *GradingSystemRepository) ListByIDs(ctx context.Context, ids []string) (map[string]*models.GradingSystem, error) {
	result := make(map[string]*models.GradingSystem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `SELECT id, name, is_default FROM grading_systems WHERE id = ANY($1)`
	var systems []models.GradingSystem
	if err := r.db.SelectContext(ctx, &systems, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list grading systems by id: %w", err)
	}
	if err := r.attachScales(ctx, systems); err != nil {
		return nil, err
	}
	for i := range systems {
		result[systems[i].ID] = &systems[i]
	}
	return result, nil
}

// attachScales loads the bands of all systems in one query, keeping stored order.
func (r *GradingSystemRepository) attachScales(ctx context.Context, systems []models.GradingSystem) error {
	if len(systems) == 0 {
		return nil
	}
	ids := make([]string, len(systems))
	for i := range systems {
		ids[i] = systems[i].ID
	}
	const query = `SELECT id, grading_system_id, name, code, min_score, max_score, grade_point, remark, sort_order
        FROM grade_scales WHERE grading_system_id = ANY($1) ORDER BY grading_system_id, sort_order, id`
	var scales []models.GradeScale
	if err := r.db.SelectContext(ctx, &scales, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list grade scales: %w", err)
	}
	bySystem := make(map[string][]models.GradeScale, len(systems))
	for _, scale := range scales {
		bySystem[scale.GradingSystemID] = append(bySystem[scale.GradingSystemID], scale)
	}
	for i := range systems {
		systems[i].Scales = bySystem[systems[i].ID]
	}
	return nil
}
