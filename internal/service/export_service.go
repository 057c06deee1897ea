package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-analysis/internal/analysis"
	"github.com/noah-isme/sma-result-analysis/internal/dto"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	"github.com/noah-isme/sma-result-analysis/pkg/export"
	"github.com/noah-isme/sma-result-analysis/pkg/storage"
)

type analysisProvider interface {
	Analyze(ctx context.Context, examID, classID string, refresh bool) (*dto.ClassAnalysis, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService turns analyses into CSV/PDF files and signs download links.
type ExportService struct {
	analysis analysisProvider
	storage  fileStorage
	csv      datasetRenderer
	pdf      datasetRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService. csv and pdf default to the pkg/export renderers.
func NewExportService(provider analysisProvider, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		analysis: provider,
		storage:  storage,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate builds the dataset for job, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	result, _, err := s.analysis.Analyze(ctx, job.Params.ExamID, job.Params.ClassID, false)
	if err != nil {
		return nil, fmt.Errorf("load analysis: %w", err)
	}
	dataset, err := BuildDataset(job.Type, result)
	if err != nil {
		return nil, err
	}
	payload, err := s.Render(job.Params.Format, dataset)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, fmt.Errorf("sign export: %w", err)
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("export generated", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// Render encodes dataset in the requested format.
func (s *ExportService) Render(format models.ReportFormat, dataset export.Dataset) ([]byte, error) {
	switch format {
	case models.ReportFormatCSV:
		return s.csv.Render(dataset)
	case models.ReportFormatPDF:
		return s.pdf.Render(dataset)
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.SignedToken, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s_%s.%s",
		strings.ToLower(string(job.Type)),
		sanitizeFilename(job.Params.ExamID),
		sanitizeFilename(job.Params.ClassID),
		timestamp,
		job.Params.Format,
	)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

// BuildDataset flattens an analysis into the table of the given report type.
func BuildDataset(reportType models.ReportType, result *dto.ClassAnalysis) (export.Dataset, error) {
	if result == nil {
		return export.Dataset{}, fmt.Errorf("analysis missing")
	}
	subtitle := fmt.Sprintf("%s - %s", result.ExamName, result.ClassName)
	switch reportType {
	case models.ReportTypeMeritList:
		return meritListDataset(result.Analysis, subtitle), nil
	case models.ReportTypeSubjectPerformance:
		return subjectPerformanceDataset(result.Analysis, subtitle), nil
	case models.ReportTypeGradeDistribution:
		return gradeDistributionDataset(result.Analysis, subtitle), nil
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", reportType)
	}
}

func meritListDataset(result models.AnalysisResult, subtitle string) export.Dataset {
	headers := []string{"Rank", "Adm No", "Name"}
	for _, subject := range result.SubjectPerformance {
		headers = append(headers, subject.Subject)
	}
	headers = append(headers, "Total Marks", "Avg Marks", "Total Points", "Avg Points", "Grade", "Stream Rank")

	rows := make([][]string, 0, len(result.MeritList))
	for _, student := range result.MeritList {
		marks := make(map[string]string, len(student.Subjects))
		for _, record := range student.Subjects {
			marks[record.SubjectID] = record.FullMarks
		}
		row := []string{formatRank(student.ClassRank), student.AdmissionNumber, student.Name}
		for _, subject := range result.SubjectPerformance {
			cell, ok := marks[subject.SubjectID]
			if !ok || cell == "" {
				cell = models.Ungraded
			}
			row = append(row, cell)
		}
		row = append(row,
			formatNumber(student.TotalMarks),
			formatNumber(student.AvgMarks),
			strconv.Itoa(student.TotalPoints),
			formatNumber(student.AvgPoints),
			student.AvgGrade,
			formatRank(student.StreamRank),
		)
		rows = append(rows, row)
	}
	return export.Dataset{Title: "Merit List", Subtitle: subtitle, Headers: headers, Rows: rows}
}

func subjectPerformanceDataset(result models.AnalysisResult, subtitle string) export.Dataset {
	headers := append([]string{"Subject", "Entries", "Mean", "Grade"}, analysis.GradeLabels...)
	rows := make([][]string, 0, len(result.SubjectPerformance))
	for _, subject := range result.SubjectPerformance {
		rows = append(rows, distributionRow(subject.Subject, subject.General))
	}
	return export.Dataset{Title: "Subject Performance", Subtitle: subtitle, Headers: headers, Rows: rows}
}

func gradeDistributionDataset(result models.AnalysisResult, subtitle string) export.Dataset {
	headers := append([]string{"Group", "Entries", "Mean", "Grade"}, analysis.GradeLabels...)
	rows := [][]string{distributionRow("Class", result.GradeDistribution.General)}

	streams := make([]models.DistributionSummary, 0, len(result.GradeDistribution.Streams))
	for _, summary := range result.GradeDistribution.Streams {
		streams = append(streams, summary)
	}
	sort.Slice(streams, func(i, j int) bool { return streams[i].Stream < streams[j].Stream })
	for _, summary := range streams {
		rows = append(rows, distributionRow(summary.Stream, summary))
	}
	return export.Dataset{Title: "Grade Distribution", Subtitle: subtitle, Headers: headers, Rows: rows}
}

func distributionRow(label string, summary models.DistributionSummary) []string {
	counts := make(map[string]int, len(summary.Grades))
	for _, grade := range summary.Grades {
		counts[grade.Grade] = grade.Count
	}
	row := []string{label, strconv.Itoa(summary.Count), formatNumber(summary.Mean), summary.Grade}
	for _, grade := range analysis.GradeLabels {
		row = append(row, strconv.Itoa(counts[grade]))
	}
	return row
}

func formatRank(rank *int) string {
	if rank == nil {
		return models.Ungraded
	}
	return strconv.Itoa(*rank)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
