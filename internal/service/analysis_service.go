package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-result-analysis/internal/analysis"
	"github.com/noah-isme/sma-result-analysis/internal/dto"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	appErrors "github.com/noah-isme/sma-result-analysis/pkg/errors"
)

type examReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	ListPrior(ctx context.Context, exam models.Exam, limit int) ([]models.Exam, error)
}

type resultReader interface {
	ListByExamClass(ctx context.Context, examID, classID string) ([]models.RawResultRow, error)
	ListHistory(ctx context.Context, filter models.ResultHistoryFilter) ([]models.RawResultRow, error)
}

type gradingSystemReader interface {
	FindDefault(ctx context.Context) (*models.GradingSystem, error)
	ListByIDs(ctx context.Context, ids []string) (map[string]*models.GradingSystem, error)
}

type subjectCatalog interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
	FirstTeachers(ctx context.Context) ([]models.SubjectTeacher, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListStreams(ctx context.Context, classID string) ([]models.ClassStream, error)
}

type studentBatchReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type chartRenderer interface {
	Render(ctx context.Context, chart models.ChartConfig) models.ChartImage
}

// AnalysisServiceConfig tunes analysis caching and trend depth.
type AnalysisServiceConfig struct {
	CacheTTL   time.Duration
	TrendExams int
}

// AnalysisServiceParams groups constructor dependencies.
type AnalysisServiceParams struct {
	Exams          examReader
	Results        resultReader
	GradingSystems gradingSystemReader
	Subjects       subjectCatalog
	Classes        classReader
	Students       studentBatchReader
	Charts         chartRenderer
	Cache          *CacheService
	Metrics        *MetricsService
	Logger         *zap.Logger
	Config         AnalysisServiceConfig
}

// AnalysisService loads exam data and runs the analysis pipeline over it.
type AnalysisService struct {
	exams    examReader
	results  resultReader
	grading  gradingSystemReader
	subjects subjectCatalog
	classes  classReader
	students studentBatchReader
	charts   chartRenderer
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      AnalysisServiceConfig
	now      func() time.Time
}

// NewAnalysisService constructs an AnalysisService.
func NewAnalysisService(params AnalysisServiceParams) *AnalysisService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.TrendExams <= 0 || cfg.TrendExams > analysis.MaxTrendExams {
		cfg.TrendExams = analysis.MaxTrendExams
	}
	return &AnalysisService{
		exams:    params.Exams,
		results:  params.Results,
		grading:  params.GradingSystems,
		subjects: params.Subjects,
		classes:  params.Classes,
		students: params.Students,
		charts:   params.Charts,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// examData is everything fetched for one exam/class analysis.
type examData struct {
	exam          models.Exam
	class         models.Class
	rows          []models.RawResultRow
	history       []models.RawResultRow
	subjects      []models.Subject
	streams       []models.ClassStream
	defaultSystem *models.GradingSystem
	teachers      map[string]string
	students      map[string]models.Student
}

// Analyze returns the analysis of examID for classID and whether it was served
// from cache. refresh bypasses the cache read.
func (s *AnalysisService) Analyze(ctx context.Context, examID, classID string, refresh bool) (*dto.ClassAnalysis, bool, error) {
	start := time.Now()
	key := AnalysisCacheKey(examID, classID)
	if !refresh {
		var cached dto.ClassAnalysis
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			s.metrics.ObserveAnalysisBuild("cache", len(cached.Analysis.MeritList), time.Since(start))
			return &cached, true, nil
		}
	}

	exam, err := s.findClassExam(ctx, examID, classID)
	if err != nil {
		return nil, false, err
	}
	data, err := s.load(ctx, *exam, classID)
	if err != nil {
		return nil, false, err
	}

	result := s.compute(data)
	payload := &dto.ClassAnalysis{
		ExamID:      exam.ID,
		ExamName:    exam.Name,
		ClassID:     data.class.ID,
		ClassName:   data.class.Name,
		GeneratedAt: s.now().UTC(),
		Analysis:    result,
	}
	s.metrics.ObserveAnalysisBuild("compute", len(result.MeritList), time.Since(start))
	s.logger.Debug("analysis computed",
		zap.String("exam_id", examID),
		zap.String("class_id", classID),
		zap.Int("students", len(result.MeritList)),
		zap.Duration("duration", time.Since(start)),
	)

	_ = s.cache.Set(ctx, key, payload, s.cfg.CacheTTL)
	return payload, false, nil
}

// Trends returns the trend series of every student of the class, covering
// examID and up to the configured number of earlier exams.
func (s *AnalysisService) Trends(ctx context.Context, examID, classID string) (*dto.ClassTrends, error) {
	key := TrendCacheKey(examID, classID)
	var cached dto.ClassTrends
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	current, _, err := s.Analyze(ctx, examID, classID, false)
	if err != nil {
		return nil, err
	}
	exam, err := s.findClassExam(ctx, examID, classID)
	if err != nil {
		return nil, err
	}
	priorExams, err := s.exams.ListPrior(ctx, *exam, s.cfg.TrendExams)
	if err != nil {
		return nil, upstream(err, "failed to load prior exams")
	}

	prior := make([]analysis.ExamResults, len(priorExams))
	var currentRows []models.RawResultRow
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.results.ListByExamClass(gctx, exam.ID, classID)
		currentRows = rows
		return err
	})
	for i, prev := range priorExams {
		i, prev := i, prev
		g.Go(func() error {
			rows, err := s.results.ListByExamClass(gctx, prev.ID, classID)
			prior[i] = analysis.ExamResults{Exam: prev, Rows: rows}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, upstream(err, "failed to load exam results")
	}

	trends := analysis.BuildTrends(analysis.ExamResults{Exam: *exam, Rows: currentRows}, prior, current.Analysis.MeritList)
	payload := &dto.ClassTrends{ExamID: exam.ID, Trends: trends}
	_ = s.cache.Set(ctx, key, payload, s.cfg.CacheTTL)
	return payload, nil
}

// StudentCharts renders the subject performance and trend charts of one student.
func (s *AnalysisService) StudentCharts(ctx context.Context, examID, classID, studentID string) (*dto.StudentCharts, error) {
	current, _, err := s.Analyze(ctx, examID, classID, false)
	if err != nil {
		return nil, err
	}
	student, ok := findStudent(current.Analysis.MeritList, studentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no results for this exam")
	}
	trends, err := s.Trends(ctx, examID, classID)
	if err != nil {
		return nil, err
	}

	charts := &dto.StudentCharts{StudentID: studentID, ExamID: examID}
	charts.SubjectPerformance.Config = analysis.BuildSubjectChart(student, current.Analysis.SubjectPerformance)
	if trend, ok := findTrend(trends.Trends, studentID); ok {
		charts.Trend.Config = trend.Chart
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		charts.SubjectPerformance.Image = s.render(gctx, charts.SubjectPerformance.Config)
		return nil
	})
	g.Go(func() error {
		charts.Trend.Image = s.render(gctx, charts.Trend.Config)
		return nil
	})
	_ = g.Wait()
	return charts, nil
}

// InvalidateExam drops every cached analysis derived from examID.
func (s *AnalysisService) InvalidateExam(ctx context.Context, examID string) (*dto.CacheInvalidation, error) {
	removed, err := s.cache.Invalidate(ctx, ExamCachePattern(examID))
	if err != nil {
		return nil, appErrors.Wrap(err, "CACHE_ERROR", appErrors.ErrInternal.Status, "failed to invalidate cached analyses")
	}
	s.logger.Info("analysis cache invalidated", zap.String("exam_id", examID), zap.Int("removed", removed))
	return &dto.CacheInvalidation{ExamID: examID, Removed: removed}, nil
}

func (s *AnalysisService) render(ctx context.Context, chart models.ChartConfig) models.ChartImage {
	if s.charts == nil {
		return Placeholder()
	}
	return s.charts.Render(ctx, chart)
}

func (s *AnalysisService) findExam(ctx context.Context, examID string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrExamNotFound
		}
		return nil, upstream(err, "failed to load exam")
	}
	return exam, nil
}

// findClassExam loads examID and rejects it when it was not sat by classID.
func (s *AnalysisService) findClassExam(ctx context.Context, examID, classID string) (*models.Exam, error) {
	exam, err := s.findExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.ClassID != classID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found for this class")
	}
	return exam, nil
}

// load fetches the exam's collaborator data. Independent lookups run in
// parallel; lookups keyed by the rows' students and subjects run second.
func (s *AnalysisService) load(ctx context.Context, exam models.Exam, classID string) (*examData, error) {
	data := &examData{exam: exam, teachers: make(map[string]string), students: make(map[string]models.Student)}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	var class *models.Class
	var teachers []models.SubjectTeacher
	g.Go(func() (err error) {
		class, err = s.classes.FindByID(gctx, classID)
		return err
	})
	g.Go(func() (err error) {
		data.rows, err = s.results.ListByExamClass(gctx, exam.ID, classID)
		return err
	})
	g.Go(func() (err error) {
		data.subjects, err = s.subjects.ListAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		data.streams, err = s.classes.ListStreams(gctx, classID)
		return err
	})
	g.Go(func() (err error) {
		teachers, err = s.subjects.FirstTeachers(gctx)
		return err
	})
	g.Go(func() error {
		system, err := s.grading.FindDefault(gctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		data.defaultSystem = system
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, upstream(err, "failed to load result data")
	}
	s.metrics.ObserveDBQuery("analysis_rows", time.Since(start))
	if class == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	data.class = *class
	for _, teacher := range teachers {
		data.teachers[teacher.SubjectID] = teacher.TeacherName
	}

	studentIDs, subjectIDs := rowKeys(data.rows)
	systemIDs := gradingSystemIDs(data.subjects)
	var systems map[string]*models.GradingSystem
	var students []models.Student

	start = time.Now()
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if len(systemIDs) == 0 {
			return nil
		}
		systems, err = s.grading.ListByIDs(gctx, systemIDs)
		return err
	})
	g.Go(func() (err error) {
		if len(studentIDs) == 0 {
			return nil
		}
		students, err = s.students.ListByIDs(gctx, studentIDs)
		return err
	})
	g.Go(func() (err error) {
		if len(studentIDs) == 0 {
			return nil
		}
		data.history, err = s.results.ListHistory(gctx, models.ResultHistoryFilter{
			StudentIDs:    studentIDs,
			SubjectIDs:    subjectIDs,
			ExcludeExamID: exam.ID,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, upstream(err, "failed to load result data")
	}
	s.metrics.ObserveDBQuery("analysis_history", time.Since(start))

	for i := range data.subjects {
		if id := data.subjects[i].GradingSystemID; id != nil {
			data.subjects[i].GradingSystem = systems[*id]
		}
	}
	for _, student := range students {
		data.students[student.ID] = student
	}
	return data, nil
}

func (s *AnalysisService) compute(data *examData) models.AnalysisResult {
	subjects := make(map[string]models.Subject, len(data.subjects))
	for _, subject := range data.subjects {
		subjects[subject.ID] = subject
	}
	aggregated := analysis.NewAggregator(analysis.NewGradeResolver(data.defaultSystem)).Aggregate(analysis.AggregateInput{
		Rows:     data.rows,
		Students: data.students,
		Subjects: subjects,
		Teachers: data.teachers,
		History:  data.history,
	})
	return analysis.NewBuilder(data.defaultSystem).Build(aggregated, data.subjects, data.streams)
}

func rowKeys(rows []models.RawResultRow) (studentIDs, subjectIDs []string) {
	students := make(map[string]struct{})
	subjects := make(map[string]struct{})
	for _, row := range rows {
		students[row.StudentID] = struct{}{}
		subjects[row.SubjectID] = struct{}{}
	}
	return sortedKeys(students), sortedKeys(subjects)
}

func gradingSystemIDs(subjects []models.Subject) []string {
	ids := make(map[string]struct{})
	for _, subject := range subjects {
		if subject.GradingSystemID != nil {
			ids[*subject.GradingSystemID] = struct{}{}
		}
	}
	return sortedKeys(ids)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func findStudent(students []models.AggregatedStudent, studentID string) (models.AggregatedStudent, bool) {
	for _, student := range students {
		if student.StudentID == studentID {
			return student, true
		}
	}
	return models.AggregatedStudent{}, false
}

func findTrend(trends []models.StudentTrend, studentID string) (models.StudentTrend, bool) {
	for _, trend := range trends {
		if trend.StudentID == studentID {
			return trend, true
		}
	}
	return models.StudentTrend{}, false
}

func upstream(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, message)
}
