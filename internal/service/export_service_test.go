package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-analysis/internal/analysis"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	"github.com/noah-isme/sma-result-analysis/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(newAnalysisFixture(t).svc, store, signer, cfg, zap.NewNop(), nil, nil)
	return svc, store
}

func exportJob(id string, reportType models.ReportType, format models.ReportFormat) *models.ReportJob {
	return &models.ReportJob{
		ID:        id,
		Type:      reportType,
		Params:    models.ReportJobParams{ExamID: "exam-2", ClassID: "class-1", Format: format},
		CreatedBy: "admin",
	}
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)

	result, err := svc.Generate(context.Background(), exportJob("job-1", models.ReportTypeMeritList, models.ReportFormatCSV))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.Equal(t, models.ReportFormatCSV, result.Format)

	file, err := store.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	content, err := io.ReadAll(file)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Rank,Adm No,Name,Mathematics,English,Total Marks,Avg Marks,Total Points,Avg Points,Grade,Stream Rank", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,,Amina,90 A,70 B,160.00,80.00,21,10.50,A,-"))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)

	result, err := svc.Generate(context.Background(), exportJob("job-2", models.ReportTypeSubjectPerformance, models.ReportFormatPDF))
	require.NoError(t, err)

	file, err := store.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	header := make([]byte, 4)
	_, err = io.ReadFull(file, header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestBuildDatasetGradeDistribution(t *testing.T) {
	result, _, err := newAnalysisFixture(t).svc.Analyze(context.Background(), "exam-2", "class-1", false)
	require.NoError(t, err)

	dataset, err := BuildDataset(models.ReportTypeGradeDistribution, result)
	require.NoError(t, err)
	require.NoError(t, dataset.Validate())
	assert.Len(t, dataset.Headers, 4+len(analysis.GradeLabels))
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, []string{"Class", "2"}, dataset.Rows[0][:2])
	assert.Equal(t, "Mid Term - Form 4", dataset.Subtitle)
}

func TestBuildDatasetRejectsUnknownType(t *testing.T) {
	_, err := BuildDataset(models.ReportType("attendance"), nil)
	require.Error(t, err)
}
