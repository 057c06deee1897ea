package dto

import (
	"time"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

// ClassAnalysis is the analysis of one exam for one class with its context.
type ClassAnalysis struct {
	ExamID      string                `json:"examId"`
	ExamName    string                `json:"examName"`
	ClassID     string                `json:"classId"`
	ClassName   string                `json:"className"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Analysis    models.AnalysisResult `json:"analysis"`
}

// ClassTrends holds the trend series of every student in a class.
type ClassTrends struct {
	ExamID string                `json:"examId"`
	Trends []models.StudentTrend `json:"trends"`
}

// StudentChart pairs a chart definition with its rendered image.
type StudentChart struct {
	Config models.ChartConfig `json:"config"`
	Image  models.ChartImage  `json:"image"`
}

// StudentCharts are the report card visuals for one student.
type StudentCharts struct {
	StudentID          string       `json:"studentId"`
	ExamID             string       `json:"examId"`
	SubjectPerformance StudentChart `json:"subjectPerformance"`
	Trend              StudentChart `json:"trend"`
}

// CacheInvalidation reports a cache purge.
type CacheInvalidation struct {
	ExamID  string `json:"examId"`
	Removed int    `json:"removed"`
}

// GradingValidation reports the outcome of a grading system check.
type GradingValidation struct {
	GradingSystemID string   `json:"gradingSystemId,omitempty"`
	Name            string   `json:"name"`
	Valid           bool     `json:"valid"`
	Issues          []string `json:"issues"`
}
