package analysis

import (
	"sort"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

// MaxTrendExams caps how many prior exams feed a trend series.
const MaxTrendExams = 4

const (
	studentSeriesColor = "#0d6efd"
	classSeriesColor   = fallbackColor
	classAverageLabel  = "Class Average"
)

// ExamResults pairs an exam with its raw rows for one class.
type ExamResults struct {
	Exam models.Exam
	Rows []models.RawResultRow
}

// BuildTrends derives, for each student, their mean score per exam next to the
// class mean. prior must be most recent first; only the first MaxTrendExams are
// used and labels run oldest to newest, ending with current.
func BuildTrends(current ExamResults, prior []ExamResults, students []models.AggregatedStudent) []models.StudentTrend {
	if len(prior) > MaxTrendExams {
		prior = prior[:MaxTrendExams]
	}
	exams := make([]ExamResults, 0, len(prior)+1)
	for i := len(prior) - 1; i >= 0; i-- {
		exams = append(exams, prior[i])
	}
	exams = append(exams, current)

	labels := make([]string, len(exams))
	means := make([]map[string]float64, len(exams))
	classAverage := make([]*float64, len(exams))
	for i, exam := range exams {
		labels[i] = exam.Exam.Name
		means[i] = studentMeans(exam.Rows)
		if len(means[i]) == 0 {
			continue
		}
		values := make([]float64, 0, len(means[i]))
		for _, v := range means[i] {
			values = append(values, v)
		}
		sort.Float64s(values)
		classAverage[i] = floatPtr(round2(mean(values)))
	}

	trends := make([]models.StudentTrend, 0, len(students))
	for _, student := range students {
		scores := make([]*float64, len(exams))
		for i := range exams {
			if v, ok := means[i][student.StudentID]; ok {
				scores[i] = floatPtr(v)
			}
		}
		trend := models.StudentTrend{
			StudentID:    student.StudentID,
			Name:         student.Name,
			Labels:       append([]string(nil), labels...),
			Scores:       scores,
			ClassAverage: copySeries(classAverage),
		}
		trend.Chart = models.ChartConfig{
			Type: "line",
			Data: models.ChartData{
				Labels: trend.Labels,
				Datasets: []models.ChartDataset{
					{Label: student.Name, Data: trend.Scores, BorderColor: studentSeriesColor},
					{Label: classAverageLabel, Data: trend.ClassAverage, BorderColor: classSeriesColor},
				},
			},
			Options: map[string]interface{}{
				"scales": map[string]interface{}{
					"y": map[string]interface{}{"min": 0, "max": 100},
				},
			},
		}
		trends = append(trends, trend)
	}
	return trends
}

// studentMeans returns round2(mean) of each student's present scores. Students
// whose rows are all unscored are left out.
func studentMeans(rows []models.RawResultRow) map[string]float64 {
	scores := make(map[string][]float64)
	for _, row := range rows {
		if row.Score == nil {
			continue
		}
		scores[row.StudentID] = append(scores[row.StudentID], *row.Score)
	}
	means := make(map[string]float64, len(scores))
	for id, values := range scores {
		means[id] = round2(mean(values))
	}
	return means
}

func copySeries(series []*float64) []*float64 {
	out := make([]*float64, len(series))
	for i, v := range series {
		out[i] = copyFloat(v)
	}
	return out
}

// BuildSubjectChart compares a student's marks per subject with the class mean
// of each subject.
func BuildSubjectChart(student models.AggregatedStudent, performance []models.SubjectPerformance) models.ChartConfig {
	classMeans := make(map[string]float64, len(performance))
	for _, p := range performance {
		if p.General.Count > 0 {
			classMeans[p.SubjectID] = p.General.Mean
		}
	}

	labels := make([]string, 0, len(student.Subjects))
	marks := make([]*float64, 0, len(student.Subjects))
	averages := make([]*float64, 0, len(student.Subjects))
	for _, record := range student.Subjects {
		labels = append(labels, record.Subject)
		marks = append(marks, copyFloat(record.Marks))
		if v, ok := classMeans[record.SubjectID]; ok {
			averages = append(averages, floatPtr(v))
		} else {
			averages = append(averages, nil)
		}
	}

	return models.ChartConfig{
		Type: "bar",
		Data: models.ChartData{
			Labels: labels,
			Datasets: []models.ChartDataset{
				{Label: student.Name, Data: marks, BackgroundColor: studentSeriesColor},
				{Label: classAverageLabel, Data: averages, BackgroundColor: classSeriesColor},
			},
		},
	}
}
