package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-analysis/internal/dto"
	"github.com/noah-isme/sma-result-analysis/internal/middleware"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	appErrors "github.com/noah-isme/sma-result-analysis/pkg/errors"
)

type analysisServiceMock struct {
	refresh  bool
	cacheHit bool
	err      error
	removed  int
}

func (m *analysisServiceMock) Analyze(_ context.Context, examID, classID string, refresh bool) (*dto.ClassAnalysis, bool, error) {
	m.refresh = refresh
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.ClassAnalysis{
		ExamID:  examID,
		ClassID: classID,
		Analysis: models.AnalysisResult{
			OverviewStats: models.OverviewStats{Students: 2, AvgGrade: "B"},
			MeritList:     []models.AggregatedStudent{},
		},
	}, m.cacheHit, nil
}

func (m *analysisServiceMock) Trends(_ context.Context, examID, _ string) (*dto.ClassTrends, error) {
	return &dto.ClassTrends{ExamID: examID, Trends: []models.StudentTrend{{StudentID: "s1", Labels: []string{"Opener"}}}}, m.err
}

func (m *analysisServiceMock) StudentCharts(_ context.Context, examID, _, studentID string) (*dto.StudentCharts, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.StudentCharts{ExamID: examID, StudentID: studentID}, nil
}

func (m *analysisServiceMock) InvalidateExam(_ context.Context, examID string) (*dto.CacheInvalidation, error) {
	return &dto.CacheInvalidation{ExamID: examID, Removed: m.removed}, nil
}

func analysisParams(c *gin.Context) {
	c.Params = gin.Params{{Key: "examId", Value: "exam-1"}, {Key: "classId", Value: "class-1"}, {Key: "studentId", Value: "s1"}}
}

func TestAnalysisHandlerClassAnalysis(t *testing.T) {
	mockSvc := &analysisServiceMock{cacheHit: true}
	handler := NewAnalysisHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/analysis/exams/exam-1/classes/class-1?refresh=true", nil)
	analysisParams(c)
	middleware.WithResponseMeta()(c)

	handler.ClassAnalysis(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.refresh)

	data, _, meta := decodeEnvelope(t, w)
	var result dto.ClassAnalysis
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "exam-1", result.ExamID)
	assert.Equal(t, 2, result.Analysis.OverviewStats.Students)
	assert.Equal(t, true, meta["cache_hit"])
}

func TestAnalysisHandlerExamNotFound(t *testing.T) {
	handler := NewAnalysisHandler(&analysisServiceMock{err: appErrors.ErrExamNotFound})

	c, w := newGinContext(http.MethodGet, "/analysis/exams/missing/classes/class-1", nil)
	analysisParams(c)

	handler.ClassAnalysis(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	_, appErr, _ := decodeEnvelope(t, w)
	require.NotNil(t, appErr)
	assert.Equal(t, "EXAM_NOT_FOUND", appErr.Code)
}

func TestAnalysisHandlerUpstreamFailure(t *testing.T) {
	handler := NewAnalysisHandler(&analysisServiceMock{err: appErrors.Wrap(assert.AnError, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load result data")})

	c, w := newGinContext(http.MethodGet, "/analysis/exams/exam-1/classes/class-1/students/s1/charts", nil)
	analysisParams(c)

	handler.StudentCharts(c)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAnalysisHandlerTrendsAndInvalidate(t *testing.T) {
	handler := NewAnalysisHandler(&analysisServiceMock{removed: 3})

	c, w := newGinContext(http.MethodGet, "/analysis/exams/exam-1/classes/class-1/trends", nil)
	analysisParams(c)
	handler.Trends(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodDelete, "/analysis/exams/exam-1/cache", nil)
	analysisParams(c)
	handler.InvalidateCache(c)
	require.Equal(t, http.StatusOK, w.Code)
	data, _, _ := decodeEnvelope(t, w)
	var result dto.CacheInvalidation
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 3, result.Removed)
}
