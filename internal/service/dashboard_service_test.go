package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-analysis/internal/models"
	appErrors "github.com/noah-isme/sma-result-analysis/pkg/errors"
)

type examListerStub struct {
	exams []models.Exam
}

func (s *examListerStub) ListRecent(_ context.Context, filter models.ExamFilter) ([]models.Exam, error) {
	out := make([]models.Exam, 0)
	for _, exam := range s.exams {
		if filter.ClassID != "" && exam.ClassID != filter.ClassID {
			continue
		}
		out = append(out, exam)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

type studentProfileStub struct {
	students map[string]models.Student
}

func (s *studentProfileStub) FindByUserID(_ context.Context, userID string) (*models.Student, error) {
	student, ok := s.students[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func newDashboardServiceForTest(t *testing.T) (*DashboardService, *memoryCacheRepo) {
	t.Helper()
	fixture := newAnalysisFixture(t)
	cacheRepo := &memoryCacheRepo{}
	svc := NewDashboardService(DashboardServiceParams{
		Exams: &examListerStub{exams: []models.Exam{{ID: "exam-2", Name: "Mid Term", ClassID: "class-1"}}},
		Students: &studentProfileStub{students: map[string]models.Student{
			"user-s1": {ID: "s1", FullName: "Amina", ClassID: "class-1"},
			"user-s3": {ID: "s3", FullName: "Chebet", ClassID: "class-7"},
		}},
		Assignments: assignmentStub{assignments: []models.TeacherAssignment{
			{UserID: "teacher-1", ClassID: "class-1", ClassName: "Form 4", SubjectID: "math", SubjectName: "Mathematics"},
			{UserID: "teacher-1", ClassID: "class-1", ClassName: "Form 4", SubjectID: "eng", SubjectName: "English"},
		}},
		Analysis: fixture.svc,
		Metrics:  fixture.metrics,
		Cache:    NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true),
		Logger:   zap.NewNop(),
	})
	return svc, cacheRepo
}

func TestDashboardServiceAdmin(t *testing.T) {
	svc, _ := newDashboardServiceForTest(t)

	dashboard, cacheHit, err := svc.ForUser(context.Background(), adminActor)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, models.RoleAdmin, dashboard.Role)
	require.NotNil(t, dashboard.Admin)
	require.Len(t, dashboard.Admin.RecentExams, 1)
	assert.Equal(t, 2, dashboard.Admin.RecentExams[0].Overview.Students)
	assert.Nil(t, dashboard.Teacher)

	_, cacheHit, err = svc.ForUser(context.Background(), adminActor)
	require.NoError(t, err)
	assert.True(t, cacheHit)
}

func TestDashboardServiceTeacher(t *testing.T) {
	svc, _ := newDashboardServiceForTest(t)

	dashboard, _, err := svc.ForUser(context.Background(), teacherActor)
	require.NoError(t, err)
	require.NotNil(t, dashboard.Teacher)
	require.Len(t, dashboard.Teacher.Subjects, 2)

	english := dashboard.Teacher.Subjects[0]
	require.NotNil(t, english.Performance)
	assert.Equal(t, "eng", english.Performance.SubjectID)
	assert.Equal(t, 60.0, english.Performance.General.Mean)
	assert.Equal(t, 75.0, dashboard.Teacher.Subjects[1].Performance.General.Mean)
}

func TestDashboardServiceStudent(t *testing.T) {
	svc, _ := newDashboardServiceForTest(t)

	dashboard, _, err := svc.ForUser(context.Background(), models.JWTClaims{UserID: "user-s1", Role: models.RoleStudent})
	require.NoError(t, err)
	require.NotNil(t, dashboard.Student)
	require.NotNil(t, dashboard.Student.Result)
	assert.Equal(t, "s1", dashboard.Student.Result.StudentID)
	require.NotNil(t, dashboard.Student.Trend)
	assert.Len(t, dashboard.Student.Trend.Labels, 2)

	empty, _, err := svc.ForUser(context.Background(), models.JWTClaims{UserID: "user-s3", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Empty(t, empty.Student.ExamID)

	_, _, err = svc.ForUser(context.Background(), models.JWTClaims{UserID: "ghost", Role: models.RoleStudent})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDashboardServiceUnknownRole(t *testing.T) {
	svc, _ := newDashboardServiceForTest(t)

	_, _, err := svc.ForUser(context.Background(), models.JWTClaims{UserID: "x", Role: "PARENT"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
