package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-analysis/internal/dto"
	"github.com/noah-isme/sma-result-analysis/pkg/response"
)

type analysisService interface {
	Analyze(ctx context.Context, examID, classID string, refresh bool) (*dto.ClassAnalysis, bool, error)
	Trends(ctx context.Context, examID, classID string) (*dto.ClassTrends, error)
	StudentCharts(ctx context.Context, examID, classID, studentID string) (*dto.StudentCharts, error)
	InvalidateExam(ctx context.Context, examID string) (*dto.CacheInvalidation, error)
}

// AnalysisHandler exposes exam result analysis endpoints.
type AnalysisHandler struct {
	service analysisService
}

// NewAnalysisHandler constructs the handler.
func NewAnalysisHandler(service analysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// ClassAnalysis godoc
// @Summary Exam analysis for a class
// @Description Overview, grade distribution, subject performance and merit list.
// @Tags Analysis
// @Produce json
// @Param examId path string true "Exam ID"
// @Param classId path string true "Class ID"
// @Param refresh query bool false "Bypass the analysis cache"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /analysis/exams/{examId}/classes/{classId} [get]
func (h *AnalysisHandler) ClassAnalysis(c *gin.Context) {
	result, cacheHit, err := h.service.Analyze(c.Request.Context(), c.Param("examId"), c.Param("classId"), boolQuery(c, "refresh"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, withCacheMeta(c, cacheHit))
}

// Trends godoc
// @Summary Per-student score trends
// @Tags Analysis
// @Produce json
// @Param examId path string true "Exam ID"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /analysis/exams/{examId}/classes/{classId}/trends [get]
func (h *AnalysisHandler) Trends(c *gin.Context) {
	trends, err := h.service.Trends(c.Request.Context(), c.Param("examId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trends, nil)
}

// StudentCharts godoc
// @Summary Report card charts for one student
// @Tags Analysis
// @Produce json
// @Param examId path string true "Exam ID"
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /analysis/exams/{examId}/classes/{classId}/students/{studentId}/charts [get]
func (h *AnalysisHandler) StudentCharts(c *gin.Context) {
	charts, err := h.service.StudentCharts(c.Request.Context(), c.Param("examId"), c.Param("classId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, charts, nil)
}

// InvalidateCache godoc
// @Summary Drop cached analyses of an exam
// @Tags Analysis
// @Produce json
// @Param examId path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /analysis/exams/{examId}/cache [delete]
func (h *AnalysisHandler) InvalidateCache(c *gin.Context) {
	result, err := h.service.InvalidateExam(c.Request.Context(), c.Param("examId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
