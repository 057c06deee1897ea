package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-analysis/internal/dto"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	appErrors "github.com/noah-isme/sma-result-analysis/pkg/errors"
)

type dashboardServiceMock struct {
	role models.UserRole
}

func (m *dashboardServiceMock) ForUser(_ context.Context, actor models.JWTClaims) (*dto.Dashboard, bool, error) {
	m.role = actor.Role
	if actor.Role != models.RoleStudent {
		return nil, false, appErrors.ErrForbidden
	}
	return &dto.Dashboard{Role: actor.Role, Student: &dto.StudentDashboard{ExamID: "exam-1"}}, false, nil
}

func TestDashboardHandlerDashboard(t *testing.T) {
	mockSvc := &dashboardServiceMock{}
	handler := NewDashboardHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/dashboard", nil)
	withUser(c, "user-s1", models.RoleStudent)
	handler.Dashboard(c)

	require.Equal(t, http.StatusOK, w.Code)
	data, _, meta := decodeEnvelope(t, w)
	var dashboard dto.Dashboard
	require.NoError(t, json.Unmarshal(data, &dashboard))
	require.NotNil(t, dashboard.Student)
	assert.Equal(t, "exam-1", dashboard.Student.ExamID)
	assert.Equal(t, false, meta["cache_hit"])
}

func TestDashboardHandlerErrors(t *testing.T) {
	handler := NewDashboardHandler(&dashboardServiceMock{})

	c, w := newGinContext(http.MethodGet, "/dashboard", nil)
	handler.Dashboard(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodGet, "/dashboard", nil)
	withUser(c, "x", "PARENT")
	handler.Dashboard(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
