package analysis

import (
	"github.com/noah-isme/sma-result-analysis/internal/models"
)

// Builder turns aggregated students into the class analysis.
type Builder struct {
	grades *GradeResolver
}

// NewBuilder constructs a builder grading averages against defaultSystem.
func NewBuilder(defaultSystem *models.GradingSystem) *Builder {
	return &Builder{grades: NewGradeResolver(defaultSystem)}
}

// Build ranks students and derives the overview, grade distributions and
// subject performance tables. Inputs are not mutated and the result only
// depends on the inputs.
func (b *Builder) Build(students []models.AggregatedStudent, subjects []models.Subject, streams []models.ClassStream) models.AnalysisResult {
	ranked := ApplyStreamRanks(ApplyClassRanks(students))

	return models.AnalysisResult{
		OverviewStats:      b.overview(ranked),
		GradeDistribution:  b.gradeDistribution(ranked, streams),
		SubjectPerformance: b.subjectPerformance(ranked, subjects, streams),
		MeritList:          ranked,
	}
}

func (b *Builder) overview(students []models.AggregatedStudent) models.OverviewStats {
	stats := models.OverviewStats{
		Students: len(students),
		AvgGrade: models.Ungraded,
		Color:    fallbackColor,
	}
	if len(students) == 0 {
		return stats
	}

	avgMarks := make([]float64, 0, len(students))
	avgPoints := make([]float64, 0, len(students))
	for _, s := range students {
		stats.TotalMarks += s.TotalMarks
		avgMarks = append(avgMarks, s.AvgMarks)
		avgPoints = append(avgPoints, s.AvgPoints)
	}
	stats.TotalMarks = round2(stats.TotalMarks)
	stats.AvgMarks = round2(mean(avgMarks))
	stats.AvgPoints = round2(mean(avgPoints))
	stats.AvgGrade = Label(b.grades.ResolveAverage(stats.AvgMarks))
	stats.Color = GradeColor(stats.AvgGrade)
	return stats
}

func (b *Builder) gradeDistribution(students []models.AggregatedStudent, streams []models.ClassStream) models.GradeDistribution {
	dist := models.GradeDistribution{
		General: b.studentSummary(students),
		Streams: make(map[string]models.DistributionSummary),
	}
	for _, stream := range streams {
		summary := b.studentSummary(studentsInStream(students, stream.ID))
		if summary.Mean <= 0 {
			continue
		}
		summary.StreamID = stream.ID
		summary.Stream = stream.Name
		dist.Streams[stream.ID] = summary
	}
	return dist
}

func (b *Builder) studentSummary(students []models.AggregatedStudent) models.DistributionSummary {
	counts := newGradeCounter()
	avgs := make([]float64, 0, len(students))
	for _, s := range students {
		counts.add(s.AvgGrade)
		avgs = append(avgs, s.AvgMarks)
	}
	summary := models.DistributionSummary{
		Grades: counts.list(),
		Count:  len(students),
		Grade:  models.Ungraded,
	}
	if len(avgs) > 0 {
		summary.Mean = round2(mean(avgs))
		summary.Grade = Label(b.grades.ResolveAverage(summary.Mean))
	}
	summary.Color = GradeColor(summary.Grade)
	return summary
}

func (b *Builder) subjectPerformance(students []models.AggregatedStudent, subjects []models.Subject, streams []models.ClassStream) []models.SubjectPerformance {
	performance := make([]models.SubjectPerformance, 0, len(subjects))
	for _, subject := range subjects {
		if !subject.IsActive {
			continue
		}
		entry := models.SubjectPerformance{
			SubjectID: subject.ID,
			Subject:   subject.Name,
			General:   b.subjectSummary(subject, students),
			Streams:   make(map[string]models.DistributionSummary),
		}
		for _, stream := range streams {
			summary := b.subjectSummary(subject, studentsInStream(students, stream.ID))
			if summary.Mean <= 0 {
				continue
			}
			summary.StreamID = stream.ID
			summary.Stream = stream.Name
			entry.Streams[stream.ID] = summary
		}
		performance = append(performance, entry)
	}
	return performance
}

func (b *Builder) subjectSummary(subject models.Subject, students []models.AggregatedStudent) models.DistributionSummary {
	counts := newGradeCounter()
	var marks []float64
	records := 0
	for _, s := range students {
		for _, record := range s.Subjects {
			if record.SubjectID != subject.ID {
				continue
			}
			records++
			counts.add(record.Grade)
			if record.Marks != nil {
				marks = append(marks, *record.Marks)
			}
		}
	}

	summary := models.DistributionSummary{
		Grades: counts.list(),
		Count:  records,
		Grade:  models.Ungraded,
	}
	if len(marks) > 0 {
		summary.Mean = round2(mean(marks))
		summary.Grade = Label(b.grades.ResolveSubjectAverage(summary.Mean, subject.GradingSystem))
	}
	summary.Color = GradeColor(summary.Grade)
	return summary
}

func studentsInStream(students []models.AggregatedStudent, streamID string) []models.AggregatedStudent {
	out := make([]models.AggregatedStudent, 0)
	for _, s := range students {
		if s.ClassStreamID != nil && *s.ClassStreamID == streamID {
			out = append(out, s)
		}
	}
	return out
}

// gradeCounter tallies labels in GradeLabels order; unknown labels are ignored.
type gradeCounter map[string]int

func newGradeCounter() gradeCounter {
	return make(gradeCounter, len(GradeLabels))
}

func (c gradeCounter) add(grade string) {
	c[grade]++
}

func (c gradeCounter) list() []models.GradeCount {
	out := make([]models.GradeCount, 0, len(GradeLabels))
	for _, label := range GradeLabels {
		out = append(out, models.GradeCount{Grade: label, Count: c[label], Color: GradeColor(label)})
	}
	return out
}
