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

type dashboardService interface {
	ForUser(ctx context.Context, actor models.JWTClaims) (*dto.Dashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Dashboard godoc
// @Summary Role specific dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dashboard, cacheHit, err := h.service.ForUser(c.Request.Context(), *claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil, withCacheMeta(c, cacheHit))
}
