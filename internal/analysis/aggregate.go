package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

// AggregateInput carries everything needed to aggregate one exam for one class.
type AggregateInput struct {
	// Rows are the result rows of the exam, already filtered to the class.
	Rows []models.RawResultRow
	// Students, Subjects and Teachers are keyed by id; Teachers maps subject id to teacher name.
	Students map[string]models.Student
	Subjects map[string]models.Subject
	Teachers map[string]string
	// History holds earlier rows for the same students and subjects, from any exam.
	History []models.RawResultRow
}

// Aggregator groups raw rows into per-student result sets.
type Aggregator struct {
	grades *GradeResolver
}

// NewAggregator constructs an aggregator.
func NewAggregator(grades *GradeResolver) *Aggregator {
	return &Aggregator{grades: grades}
}

// Aggregate builds one AggregatedStudent per student present in the rows, in
// order of first appearance. Ranks are left unset.
func (a *Aggregator) Aggregate(in AggregateInput) []models.AggregatedStudent {
	students := make([]models.AggregatedStudent, 0)
	if len(in.Rows) == 0 {
		return students
	}

	ranks := newSubjectRankIndex(in.Rows)
	history := newHistoryIndex(in.Rows, in.History)

	order := make([]string, 0)
	groups := make(map[string][]models.RawResultRow)
	for _, row := range in.Rows {
		if _, ok := groups[row.StudentID]; !ok {
			order = append(order, row.StudentID)
		}
		groups[row.StudentID] = append(groups[row.StudentID], row)
	}

	for _, studentID := range order {
		students = append(students, a.aggregateStudent(studentID, groups[studentID], in, ranks, history))
	}
	return students
}

func (a *Aggregator) aggregateStudent(studentID string, rows []models.RawResultRow, in AggregateInput, ranks *subjectRankIndex, history *historyIndex) models.AggregatedStudent {
	profile := in.Students[studentID]
	result := models.AggregatedStudent{
		StudentID:       studentID,
		Name:            profile.FullName,
		ProfileImage:    profile.ProfileImage,
		Signature:       profile.Signature,
		ClassStreamID:   profile.ClassStreamID,
		AdmissionNumber: profile.AdmissionNumber,
		Subjects:        make([]models.SubjectResultRecord, 0, len(rows)),
	}

	var scores []float64
	for _, row := range rows {
		if result.ClassStreamID == nil && row.ClassStreamID != nil {
			stream := *row.ClassStreamID
			result.ClassStreamID = &stream
		}
		record := a.subjectRecord(row, in, ranks, history)
		if row.Score != nil {
			result.TotalMarks += *row.Score
			scores = append(scores, *row.Score)
		}
		result.TotalPoints += record.GradePoint
		result.Subjects = append(result.Subjects, record)
	}

	result.AvgMarks = round2(mean(scores))
	if len(result.Subjects) > 0 {
		result.AvgPoints = round2(float64(result.TotalPoints) / float64(len(result.Subjects)))
	}
	result.AvgGrade = Label(a.grades.ResolveAverage(result.AvgMarks))
	return result
}

func (a *Aggregator) subjectRecord(row models.RawResultRow, in AggregateInput, ranks *subjectRankIndex, history *historyIndex) models.SubjectResultRecord {
	subject := in.Subjects[row.SubjectID]
	scale := a.grades.Resolve(row.Score, subject.GradingSystem)

	record := models.SubjectResultRecord{
		SubjectID: row.SubjectID,
		Subject:   subject.Name,
		Marks:     copyFloat(row.Score),
		Grade:     Label(scale),
		Rank:      ranks.rank(row.SubjectID, row.Score),
		Deviation: history.deviation(row),
		Teacher:   models.NotAssigned,
	}
	if scale != nil {
		record.GradePoint = int(scale.GradePoint)
		record.Remark = scale.Remark
	}
	if teacher := strings.TrimSpace(in.Teachers[row.SubjectID]); teacher != "" {
		record.Teacher = teacher
	}
	record.FullMarks = fullMarks(row.Score, scale)
	return record
}

func fullMarks(score *float64, scale *models.GradeScale) string {
	if score == nil {
		if scale == nil {
			return ""
		}
		return scale.Name
	}
	marks := fmt.Sprintf("%.0f", math.Round(*score))
	if scale == nil {
		return marks
	}
	return marks + " " + scale.Name
}

// subjectRankIndex holds, per subject, the distinct scores in descending order
// and the number of students with a row for that subject.
type subjectRankIndex struct {
	distinct map[string][]float64
	totals   map[string]int
}

func newSubjectRankIndex(rows []models.RawResultRow) *subjectRankIndex {
	scores := make(map[string]map[float64]struct{})
	students := make(map[string]map[string]struct{})
	for _, row := range rows {
		if students[row.SubjectID] == nil {
			students[row.SubjectID] = make(map[string]struct{})
			scores[row.SubjectID] = make(map[float64]struct{})
		}
		students[row.SubjectID][row.StudentID] = struct{}{}
		if row.Score != nil {
			scores[row.SubjectID][*row.Score] = struct{}{}
		}
	}

	idx := &subjectRankIndex{
		distinct: make(map[string][]float64, len(scores)),
		totals:   make(map[string]int, len(students)),
	}
	for subjectID, set := range scores {
		values := make([]float64, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(values)))
		idx.distinct[subjectID] = values
		idx.totals[subjectID] = len(students[subjectID])
	}
	return idx
}

// rank returns the dense rank of score within subjectID; ties share a rank.
func (idx *subjectRankIndex) rank(subjectID string, score *float64) *models.SubjectRank {
	total := idx.totals[subjectID]
	if score == nil || total == 0 {
		return nil
	}
	values := idx.distinct[subjectID]
	pos := sort.Search(len(values), func(i int) bool { return values[i] <= *score })
	if pos == len(values) || values[pos] != *score {
		return nil
	}
	return &models.SubjectRank{Position: pos + 1, Total: total}
}

// historyIndex keeps rows per student+subject, newest first.
type historyIndex struct {
	rows map[string][]models.RawResultRow
}

func historyKey(studentID, subjectID string) string {
	return studentID + "|" + subjectID
}

func newHistoryIndex(current, history []models.RawResultRow) *historyIndex {
	idx := &historyIndex{rows: make(map[string][]models.RawResultRow)}
	for _, set := range [][]models.RawResultRow{history, current} {
		for _, row := range set {
			key := historyKey(row.StudentID, row.SubjectID)
			idx.rows[key] = append(idx.rows[key], row)
		}
	}
	for key := range idx.rows {
		rows := idx.rows[key]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	}
	return idx
}

// deviation compares row with the most recent strictly earlier row of the same
// student and subject. It is nil when there is no such row or a score is missing.
func (idx *historyIndex) deviation(row models.RawResultRow) *float64 {
	if row.Score == nil {
		return nil
	}
	for _, prior := range idx.rows[historyKey(row.StudentID, row.SubjectID)] {
		if !prior.CreatedAt.Before(row.CreatedAt) {
			continue
		}
		if prior.Score == nil {
			return nil
		}
		return floatPtr(round2(*row.Score - *prior.Score))
	}
	return nil
}
