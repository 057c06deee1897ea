package analysis

import (
	"time"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

func testGradingSystem() *models.GradingSystem {
	return &models.GradingSystem{
		ID:        "gs-default",
		Name:      "KCSE",
		IsDefault: true,
		Scales: []models.GradeScale{
			{ID: "a", Name: "A", MinScore: 80, MaxScore: 100, GradePoint: 12, Remark: "Excellent"},
			{ID: "b", Name: "B", MinScore: 60, MaxScore: 79, GradePoint: 9, Remark: "Good"},
			{ID: "c", Name: "C", MinScore: 40, MaxScore: 59, GradePoint: 6, Remark: "Fair"},
			{ID: "e", Name: "E", MinScore: 0, MaxScore: 39, GradePoint: 1, Remark: "Poor"},
		},
	}
}

func score(v float64) *float64 {
	return &v
}

func str(v string) *string {
	return &v
}

var baseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func row(student, subject string, value *float64, stream *string) models.RawResultRow {
	return models.RawResultRow{
		ExamID:        "exam-1",
		ClassID:       "class-1",
		ClassStreamID: stream,
		StudentID:     student,
		SubjectID:     subject,
		Score:         value,
		ScoreOutOf:    models.DefaultScoreOutOf,
		CreatedAt:     baseTime,
	}
}

func subjectCatalog(system *models.GradingSystem) map[string]models.Subject {
	return map[string]models.Subject{
		"math": {ID: "math", Name: "Mathematics", IsActive: true, GradingSystem: system},
		"eng":  {ID: "eng", Name: "English", IsActive: true, GradingSystem: system},
		"chem": {ID: "chem", Name: "Chemistry", IsActive: true, GradingSystem: system},
	}
}

func student(id string, avg float64, stream *string) models.AggregatedStudent {
	return models.AggregatedStudent{StudentID: id, Name: id, AvgMarks: avg, ClassStreamID: stream}
}
