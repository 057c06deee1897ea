package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-analysis/internal/dto"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	appErrors "github.com/noah-isme/sma-result-analysis/pkg/errors"
)

type examLister interface {
	ListRecent(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error)
}

type studentProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type dashboardAnalysis interface {
	Analyze(ctx context.Context, examID, classID string, refresh bool) (*dto.ClassAnalysis, bool, error)
	Trends(ctx context.Context, examID, classID string) (*dto.ClassTrends, error)
}

type dashboardFunc func(ctx context.Context, actor models.JWTClaims) (*dto.Dashboard, error)

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	RecentExams int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Exams       examLister
	Students    studentProfileReader
	Assignments assignmentReader
	Analysis    dashboardAnalysis
	Metrics     *MetricsService
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// DashboardService composes the landing payload of each role.
type DashboardService struct {
	exams       examLister
	students    studentProfileReader
	assignments assignmentReader
	analysis    dashboardAnalysis
	metrics     *MetricsService
	cache       *CacheService
	logger      *zap.Logger
	cfg         DashboardServiceConfig
	byRole      map[models.UserRole]dashboardFunc
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RecentExams <= 0 {
		cfg.RecentExams = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DashboardService{
		exams:       params.Exams,
		students:    params.Students,
		assignments: params.Assignments,
		analysis:    params.Analysis,
		metrics:     params.Metrics,
		cache:       params.Cache,
		logger:      logger,
		cfg:         cfg,
	}
	s.byRole = map[models.UserRole]dashboardFunc{
		models.RoleSuperAdmin: s.admin,
		models.RoleAdmin:      s.admin,
		models.RoleTeacher:    s.teacher,
		models.RoleStudent:    s.student,
	}
	return s
}

// ForUser returns the dashboard of actor's role and whether it came from cache.
func (s *DashboardService) ForUser(ctx context.Context, actor models.JWTClaims) (*dto.Dashboard, bool, error) {
	build, ok := s.byRole[actor.Role]
	if !ok {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "no dashboard for role")
	}

	key := fmt.Sprintf("dashboard:%s:%s", actor.Role, actor.UserID)
	var cached dto.Dashboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	dashboard, err := build(ctx, actor)
	if err != nil {
		return nil, false, err
	}
	dashboard.Role = actor.Role
	if err := s.cache.Set(ctx, key, dashboard, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return dashboard, false, nil
}

func (s *DashboardService) admin(ctx context.Context, _ models.JWTClaims) (*dto.Dashboard, error) {
	exams, err := s.exams.ListRecent(ctx, models.ExamFilter{Limit: s.cfg.RecentExams})
	if err != nil {
		return nil, upstream(err, "failed to load recent exams")
	}
	overviews := make([]dto.ExamOverview, 0, len(exams))
	for _, exam := range exams {
		result, _, err := s.analysis.Analyze(ctx, exam.ID, exam.ClassID, false)
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, dto.ExamOverview{
			ExamID:    result.ExamID,
			ExamName:  result.ExamName,
			ClassID:   result.ClassID,
			ClassName: result.ClassName,
			Overview:  result.Analysis.OverviewStats,
		})
	}
	return &dto.Dashboard{Admin: &dto.AdminDashboard{RecentExams: overviews, System: s.metrics.Snapshot()}}, nil
}

func (s *DashboardService) teacher(ctx context.Context, actor models.JWTClaims) (*dto.Dashboard, error) {
	assignments, err := s.assignments.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, upstream(err, "failed to load teacher assignments")
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].ClassName != assignments[j].ClassName {
			return assignments[i].ClassName < assignments[j].ClassName
		}
		return assignments[i].SubjectName < assignments[j].SubjectName
	})

	latest := make(map[string]*dto.ClassAnalysis)
	subjects := make([]dto.TeacherSubjectPerformance, 0, len(assignments))
	for _, assignment := range assignments {
		result, seen := latest[assignment.ClassID]
		if !seen {
			result, err = s.latestAnalysis(ctx, assignment.ClassID)
			if err != nil {
				return nil, err
			}
			latest[assignment.ClassID] = result
		}
		if result == nil {
			continue
		}
		entry := dto.TeacherSubjectPerformance{
			ClassID:   result.ClassID,
			ClassName: result.ClassName,
			ExamID:    result.ExamID,
			ExamName:  result.ExamName,
		}
		for i := range result.Analysis.SubjectPerformance {
			if result.Analysis.SubjectPerformance[i].SubjectID == assignment.SubjectID {
				performance := result.Analysis.SubjectPerformance[i]
				entry.Performance = &performance
				break
			}
		}
		subjects = append(subjects, entry)
	}
	return &dto.Dashboard{Teacher: &dto.TeacherDashboard{Subjects: subjects}}, nil
}

func (s *DashboardService) student(ctx context.Context, actor models.JWTClaims) (*dto.Dashboard, error) {
	profile, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, upstream(err, "failed to load student profile")
	}

	view := &dto.StudentDashboard{}
	result, err := s.latestAnalysis(ctx, profile.ClassID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &dto.Dashboard{Student: view}, nil
	}
	view.ExamID = result.ExamID
	view.ExamName = result.ExamName
	if entry, ok := findStudent(result.Analysis.MeritList, profile.ID); ok {
		view.Result = &entry
	}

	trends, err := s.analysis.Trends(ctx, result.ExamID, profile.ClassID)
	if err != nil {
		return nil, err
	}
	if trend, ok := findTrend(trends.Trends, profile.ID); ok {
		view.Trend = &trend
	}
	return &dto.Dashboard{Student: view}, nil
}

// latestAnalysis returns the analysis of the class's most recent exam, or nil
// when the class has none.
func (s *DashboardService) latestAnalysis(ctx context.Context, classID string) (*dto.ClassAnalysis, error) {
	exams, err := s.exams.ListRecent(ctx, models.ExamFilter{ClassID: classID, Limit: 1})
	if err != nil {
		return nil, upstream(err, "failed to load recent exams")
	}
	if len(exams) == 0 {
		return nil, nil
	}
	result, _, err := s.analysis.Analyze(ctx, exams[0].ID, classID, false)
	return result, err
}
