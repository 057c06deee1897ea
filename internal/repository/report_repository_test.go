package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

var reportJobRowColumns = []string{"id", "type", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}

func TestReportRepositoryCreateAndGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_export_jobs")).
		WithArgs(sqlmock.AnyArg(), "merit_list", sqlmock.AnyArg(), "QUEUED", 0, nil, "user-1", sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ReportJob{
		Type:      models.ReportTypeMeritList,
		Params:    models.ReportJobParams{ExamID: "exam-1", ClassID: "class-1", Format: models.ReportFormatCSV},
		CreatedBy: "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message FROM analysis_export_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(sqlmock.NewRows(reportJobRowColumns).
			AddRow(job.ID, "merit_list", `{"examId":"exam-1","classId":"class-1","format":"csv"}`, "QUEUED", 0, nil, "user-1", time.Now(), nil, nil))

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, fetched.ID)
	assert.Equal(t, "exam-1", fetched.Params.ExamID)
	assert.Equal(t, models.ReportFormatCSV, fetched.Params.Format)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	now := time.Now()
	status := models.ReportStatusFinished
	progress := 100
	result := "/api/v1/export/token"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE analysis_export_jobs SET status = $1, progress = $2, result_url = $3, finished_at = $4 WHERE id = $5")).
		WithArgs(status, progress, result, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateReportJobParams{
		Status:     &status,
		Progress:   &progress,
		ResultURL:  &result,
		FinishedAt: &now,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateReportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListQueued(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_export_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2")).
		WithArgs(models.ReportStatusQueued, 20).
		WillReturnRows(sqlmock.NewRows(reportJobRowColumns).
			AddRow("job-1", "subject_performance", `{"examId":"exam-1","classId":"class-1","format":"pdf"}`, "QUEUED", 0, nil, "user-1", time.Now(), nil, nil))

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ReportTypeSubjectPerformance, jobs[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListFinishedBefore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	cutoff := time.Now().Add(-24 * time.Hour)
	finished := cutoff.Add(-time.Hour)
	url := "/api/v1/export/abc"
	mock.ExpectQuery(`WHERE status = \$1 AND finished_at IS NOT NULL AND finished_at < \$2 ORDER BY finished_at ASC LIMIT \$3`).
		WithArgs(models.ReportStatusFinished, cutoff, 50).
		WillReturnRows(sqlmock.NewRows(reportJobRowColumns).
			AddRow("job-1", "merit_list", `{"examId":"exam-1","classId":"class-1","format":"csv"}`, "FINISHED", 100, url, "user-1", finished, finished, nil))

	jobs, err := repo.ListFinishedBefore(context.Background(), cutoff, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].ResultURL)
	assert.Equal(t, url, *jobs[0].ResultURL)
	require.NoError(t, mock.ExpectationsWereMet())
}
