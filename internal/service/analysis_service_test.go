package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-analysis/internal/models"
	appErrors "github.com/noah-isme/sma-result-analysis/pkg/errors"
)

var analysisBaseTime = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

func scorePtr(v float64) *float64 {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func defaultGradingSystem() *models.GradingSystem {
	return &models.GradingSystem{
		ID:        "gs-1",
		Name:      "KCSE",
		IsDefault: true,
		Scales: []models.GradeScale{
			{ID: "a", Name: "A", MinScore: 80, MaxScore: 100, GradePoint: 12},
			{ID: "b", Name: "B", MinScore: 60, MaxScore: 79, GradePoint: 9},
			{ID: "c", Name: "C", MinScore: 40, MaxScore: 59, GradePoint: 6},
			{ID: "e", Name: "E", MinScore: 0, MaxScore: 39, GradePoint: 1},
		},
	}
}

func resultRow(examID, studentID, subjectID string, score float64, at time.Time) models.RawResultRow {
	return models.RawResultRow{
		ExamID:     examID,
		ClassID:    "class-1",
		StudentID:  studentID,
		SubjectID:  subjectID,
		Score:      scorePtr(score),
		ScoreOutOf: models.DefaultScoreOutOf,
		CreatedAt:  at,
	}
}

type examReaderStub struct {
	exams map[string]models.Exam
	prior []models.Exam
	err   error
}

func (s *examReaderStub) FindByID(_ context.Context, id string) (*models.Exam, error) {
	if s.err != nil {
		return nil, s.err
	}
	exam, ok := s.exams[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &exam, nil
}

func (s *examReaderStub) ListPrior(_ context.Context, _ models.Exam, limit int) ([]models.Exam, error) {
	if len(s.prior) > limit {
		return s.prior[:limit], nil
	}
	return s.prior, nil
}

type resultReaderStub struct {
	mu            sync.Mutex
	rows          map[string][]models.RawResultRow
	history       []models.RawResultRow
	err           error
	calls         int
	historyFilter models.ResultHistoryFilter
}

func (s *resultReaderStub) ListByExamClass(_ context.Context, examID, _ string) ([]models.RawResultRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[examID], nil
}

func (s *resultReaderStub) ListHistory(_ context.Context, filter models.ResultHistoryFilter) ([]models.RawResultRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyFilter = filter
	return s.history, nil
}

type gradingReaderStub struct {
	system *models.GradingSystem
}

func (s *gradingReaderStub) FindDefault(context.Context) (*models.GradingSystem, error) {
	if s.system == nil {
		return nil, sql.ErrNoRows
	}
	return s.system, nil
}

func (s *gradingReaderStub) ListByIDs(_ context.Context, ids []string) (map[string]*models.GradingSystem, error) {
	out := make(map[string]*models.GradingSystem)
	for _, id := range ids {
		if s.system != nil && s.system.ID == id {
			out[id] = s.system
		}
	}
	return out, nil
}

type teacherAssignmentRow struct {
	subjectID string
	classID   string
	teacher   string
}

type subjectCatalogStub struct {
	subjects    []models.Subject
	assignments []teacherAssignmentRow
}

func (s *subjectCatalogStub) ListAll(context.Context) ([]models.Subject, error) {
	out := make([]models.Subject, len(s.subjects))
	copy(out, s.subjects)
	return out, nil
}

// FirstTeachers keeps the earliest assignment per subject whatever its class.
func (s *subjectCatalogStub) FirstTeachers(context.Context) ([]models.SubjectTeacher, error) {
	seen := make(map[string]bool)
	var out []models.SubjectTeacher
	for _, a := range s.assignments {
		if seen[a.subjectID] {
			continue
		}
		seen[a.subjectID] = true
		out = append(out, models.SubjectTeacher{SubjectID: a.subjectID, TeacherName: a.teacher})
	}
	return out, nil
}

type classReaderStub struct {
	classes map[string]models.Class
}

func (s *classReaderStub) FindByID(_ context.Context, id string) (*models.Class, error) {
	class, ok := s.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &class, nil
}

func (s *classReaderStub) ListStreams(context.Context, string) ([]models.ClassStream, error) {
	return nil, nil
}

type studentBatchStub struct {
	students []models.Student
}

func (s *studentBatchStub) ListByIDs(context.Context, []string) ([]models.Student, error) {
	return s.students, nil
}

type chartRendererStub struct {
	mu    sync.Mutex
	types []string
}

func (s *chartRendererStub) Render(_ context.Context, chart models.ChartConfig) models.ChartImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types = append(s.types, chart.Type)
	return models.ChartImage{ContentType: "image/png", DataURI: "data:image/png;base64,AAAA"}
}

type memoryCacheRepo struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (s *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	removed := 0
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
			removed++
		}
	}
	return removed, nil
}

type analysisFixture struct {
	exams    *examReaderStub
	results  *resultReaderStub
	subjects *subjectCatalogStub
	charts   *chartRendererStub
	cache    *memoryCacheRepo
	metrics  *MetricsService
	svc      *AnalysisService
}

func newAnalysisFixture(t *testing.T) *analysisFixture {
	t.Helper()
	system := defaultGradingSystem()
	current := models.Exam{ID: "exam-2", Name: "Mid Term", ClassID: "class-1", CreatedAt: analysisBaseTime}
	opener := models.Exam{ID: "exam-1", Name: "Opener", ClassID: "class-1", CreatedAt: analysisBaseTime.AddDate(0, -1, 0)}

	f := &analysisFixture{
		exams: &examReaderStub{
			exams: map[string]models.Exam{current.ID: current, opener.ID: opener},
			prior: []models.Exam{opener},
		},
		results: &resultReaderStub{
			rows: map[string][]models.RawResultRow{
				"exam-2": {
					resultRow("exam-2", "s1", "math", 90, analysisBaseTime),
					resultRow("exam-2", "s1", "eng", 70, analysisBaseTime),
					resultRow("exam-2", "s2", "math", 60, analysisBaseTime),
					resultRow("exam-2", "s2", "eng", 50, analysisBaseTime),
				},
				"exam-1": {
					resultRow("exam-1", "s1", "math", 75, opener.CreatedAt),
					resultRow("exam-1", "s1", "eng", 65, opener.CreatedAt),
					resultRow("exam-1", "s2", "math", 40, opener.CreatedAt),
					resultRow("exam-1", "s2", "eng", 50, opener.CreatedAt),
				},
			},
			history: []models.RawResultRow{resultRow("exam-1", "s1", "math", 75, opener.CreatedAt)},
		},
		subjects: &subjectCatalogStub{
			subjects: []models.Subject{
				{ID: "math", Name: "Mathematics", IsActive: true, GradingSystemID: strPtr(system.ID)},
				{ID: "eng", Name: "English", IsActive: true, GradingSystemID: strPtr(system.ID)},
			},
			assignments: []teacherAssignmentRow{{subjectID: "math", classID: "class-1", teacher: "Jane Wanjiru"}},
		},
		charts:  &chartRendererStub{},
		cache:   &memoryCacheRepo{},
		metrics: NewMetricsService(),
	}

	f.svc = NewAnalysisService(AnalysisServiceParams{
		Exams:          f.exams,
		Results:        f.results,
		GradingSystems: &gradingReaderStub{system: system},
		Subjects:       f.subjects,
		Classes:        &classReaderStub{classes: map[string]models.Class{"class-1": {ID: "class-1", Name: "Form 4"}}},
		Students:       &studentBatchStub{students: []models.Student{{ID: "s1", FullName: "Amina"}, {ID: "s2", FullName: "Brian"}}},
		Charts:         f.charts,
		Cache:          NewCacheService(f.cache, f.metrics, time.Minute, zap.NewNop(), true),
		Metrics:        f.metrics,
		Logger:         zap.NewNop(),
		Config:         AnalysisServiceConfig{CacheTTL: time.Minute, TrendExams: 4},
	})
	return f
}

func TestAnalysisServiceAnalyze(t *testing.T) {
	f := newAnalysisFixture(t)

	result, cacheHit, err := f.svc.Analyze(context.Background(), "exam-2", "class-1", false)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, "Mid Term", result.ExamName)
	assert.Equal(t, "Form 4", result.ClassName)

	merit := result.Analysis.MeritList
	require.Len(t, merit, 2)
	assert.Equal(t, "s1", merit[0].StudentID)
	assert.Equal(t, "Amina", merit[0].Name)
	assert.Equal(t, 80.0, merit[0].AvgMarks)
	assert.Equal(t, "A", merit[0].AvgGrade)
	require.NotNil(t, merit[0].ClassRank)
	assert.Equal(t, 1, *merit[0].ClassRank)
	assert.Equal(t, "C", merit[1].AvgGrade)

	math := merit[0].Subjects[0]
	assert.Equal(t, "Jane Wanjiru", math.Teacher)
	require.NotNil(t, math.Deviation)
	assert.Equal(t, 15.0, *math.Deviation)
	assert.Equal(t, models.NotAssigned, merit[0].Subjects[1].Teacher)

	assert.Equal(t, "exam-2", f.results.historyFilter.ExcludeExamID)
	assert.Equal(t, []string{"s1", "s2"}, f.results.historyFilter.StudentIDs)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().AnalysesBuilt)
}

func TestAnalysisServiceAnalyzeUsesCache(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()

	first, _, err := f.svc.Analyze(ctx, "exam-2", "class-1", false)
	require.NoError(t, err)
	calls := f.results.calls

	second, cacheHit, err := f.svc.Analyze(ctx, "exam-2", "class-1", false)
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, calls, f.results.calls)
	assert.Equal(t, first.Analysis.MeritList, second.Analysis.MeritList)

	_, cacheHit, err = f.svc.Analyze(ctx, "exam-2", "class-1", true)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Greater(t, f.results.calls, calls)
}

func TestAnalysisServiceExamNotFound(t *testing.T) {
	f := newAnalysisFixture(t)

	_, _, err := f.svc.Analyze(context.Background(), "missing", "class-1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExamNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnalysisServiceTeacherAssignedInAnotherClass(t *testing.T) {
	f := newAnalysisFixture(t)
	f.subjects.assignments = append(f.subjects.assignments,
		teacherAssignmentRow{subjectID: "eng", classID: "class-2", teacher: "Peter Otieno"},
		teacherAssignmentRow{subjectID: "eng", classID: "class-1", teacher: "Grace Njeri"},
	)

	result, _, err := f.svc.Analyze(context.Background(), "exam-2", "class-1", false)
	require.NoError(t, err)

	english := result.Analysis.MeritList[0].Subjects[1]
	assert.Equal(t, "eng", english.SubjectID)
	assert.Equal(t, "Peter Otieno", english.Teacher)
}

func TestAnalysisServiceClassNotFound(t *testing.T) {
	f := newAnalysisFixture(t)
	f.exams.exams["exam-9"] = models.Exam{ID: "exam-9", Name: "Mock", ClassID: "class-9", CreatedAt: analysisBaseTime}

	_, _, err := f.svc.Analyze(context.Background(), "exam-9", "class-9", false)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "class not found", appErr.Message)
}

func TestAnalysisServiceRejectsExamOfAnotherClass(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Analyze(ctx, "exam-2", "class-2", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Trends(ctx, "exam-2", "class-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.results.calls)
}

func TestAnalysisServiceUpstreamFailure(t *testing.T) {
	f := newAnalysisFixture(t)
	f.results.err = assert.AnError

	_, _, err := f.svc.Analyze(context.Background(), "exam-2", "class-1", false)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAnalysisServiceTrends(t *testing.T) {
	f := newAnalysisFixture(t)

	trends, err := f.svc.Trends(context.Background(), "exam-2", "class-1")
	require.NoError(t, err)
	require.Len(t, trends.Trends, 2)

	first := trends.Trends[0]
	assert.Equal(t, "s1", first.StudentID)
	assert.Equal(t, []string{"Opener", "Mid Term"}, first.Labels)
	require.Len(t, first.Scores, 2)
	assert.Equal(t, 70.0, *first.Scores[0])
	assert.Equal(t, 80.0, *first.Scores[1])
	assert.Equal(t, 57.5, *first.ClassAverage[0])
	assert.Equal(t, 67.5, *first.ClassAverage[1])
}

func TestAnalysisServiceStudentCharts(t *testing.T) {
	f := newAnalysisFixture(t)

	charts, err := f.svc.StudentCharts(context.Background(), "exam-2", "class-1", "s2")
	require.NoError(t, err)
	assert.Equal(t, "bar", charts.SubjectPerformance.Config.Type)
	assert.Equal(t, "line", charts.Trend.Config.Type)
	assert.False(t, charts.SubjectPerformance.Image.Placeholder)
	assert.ElementsMatch(t, []string{"bar", "line"}, f.charts.types)

	_, err = f.svc.StudentCharts(context.Background(), "exam-2", "class-1", "s9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnalysisServiceInvalidateExam(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()

	_, err := f.svc.Trends(ctx, "exam-2", "class-1")
	require.NoError(t, err)

	result, err := f.svc.InvalidateExam(ctx, "exam-2")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Removed)

	_, cacheHit, err := f.svc.Analyze(ctx, "exam-2", "class-1", false)
	require.NoError(t, err)
	assert.False(t, cacheHit)
}
