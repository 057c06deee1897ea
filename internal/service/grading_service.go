package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-analysis/internal/analysis"
	"github.com/noah-isme/sma-result-analysis/internal/dto"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	appErrors "github.com/noah-isme/sma-result-analysis/pkg/errors"
)

type gradingSystemStore interface {
	List(ctx context.Context) ([]models.GradingSystem, error)
	FindByID(ctx context.Context, id string) (*models.GradingSystem, error)
}

// GradingService checks grading systems for malformed, overlapping or missing bands.
type GradingService struct {
	repo      gradingSystemStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradingService constructs a GradingService.
func NewGradingService(repo gradingSystemStore, logger *zap.Logger) *GradingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{repo: repo, validator: validator.New(), logger: logger}
}

// ValidatePayload checks a submitted grading system. Field errors yield
// VALIDATION_ERROR; band problems yield INVALID_GRADING_SYSTEM.
func (s *GradingService) ValidatePayload(system models.GradingSystem) (*dto.GradingValidation, error) {
	if err := s.validator.Struct(system); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	result := Check(&system)
	if !result.Valid {
		return result, invalidGradingSystem(result)
	}
	return result, nil
}

// ValidateStored checks the persisted grading system id.
func (s *GradingService) ValidateStored(ctx context.Context, id string) (*dto.GradingValidation, error) {
	system, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grading system not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load grading system")
	}
	result := Check(system)
	if !result.Valid {
		s.logger.Warn("stored grading system is invalid", zap.String("grading_system_id", id), zap.Strings("issues", result.Issues))
		return result, invalidGradingSystem(result)
	}
	return result, nil
}

// ValidateAll checks every persisted grading system.
func (s *GradingService) ValidateAll(ctx context.Context) ([]dto.GradingValidation, error) {
	systems, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load grading systems")
	}
	results := make([]dto.GradingValidation, 0, len(systems))
	for i := range systems {
		results = append(results, *Check(&systems[i]))
	}
	return results, nil
}

// Check runs band validation without touching storage.
func Check(system *models.GradingSystem) *dto.GradingValidation {
	result := &dto.GradingValidation{Valid: true, Issues: []string{}}
	if system != nil {
		result.GradingSystemID = system.ID
		result.Name = system.Name
	}
	var gsErr *analysis.GradingSystemError
	if err := analysis.ValidateGradingSystem(system); errors.As(err, &gsErr) {
		result.Valid = false
		result.Issues = gsErr.Issues
	}
	return result
}

func invalidGradingSystem(result *dto.GradingValidation) error {
	return appErrors.Clone(appErrors.ErrInvalidGradingSystem, appErrors.ErrInvalidGradingSystem.Message+": "+strings.Join(result.Issues, "; "))
}
