package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-analysis/internal/dto"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	appErrors "github.com/noah-isme/sma-result-analysis/pkg/errors"
	"github.com/noah-isme/sma-result-analysis/pkg/response"
)

type gradingService interface {
	ValidatePayload(system models.GradingSystem) (*dto.GradingValidation, error)
	ValidateStored(ctx context.Context, id string) (*dto.GradingValidation, error)
}

// GradingHandler exposes grading system checks.
type GradingHandler struct {
	service gradingService
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service gradingService) *GradingHandler {
	return &GradingHandler{service: service}
}

// ValidatePayload godoc
// @Summary Validate grading system bands
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body models.GradingSystem true "Grading system"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /grading-systems/validate [post]
func (h *GradingHandler) ValidatePayload(c *gin.Context) {
	var system models.GradingSystem
	if err := c.ShouldBindJSON(&system); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	result, err := h.service.ValidatePayload(system)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ValidateStored godoc
// @Summary Validate a stored grading system
// @Tags Grading
// @Produce json
// @Param id path string true "Grading system ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /grading-systems/{id}/validate [get]
func (h *GradingHandler) ValidateStored(c *gin.Context) {
	result, err := h.service.ValidateStored(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
