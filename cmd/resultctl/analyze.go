package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-result-analysis/internal/dto"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	"github.com/noah-isme/sma-result-analysis/internal/repository"
	"github.com/noah-isme/sma-result-analysis/internal/service"
)

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	format := models.ReportFormat(opts.format)
	if opts.format != "json" && format != models.ReportFormatCSV && format != models.ReportFormatPDF {
		return fmt.Errorf("unsupported format %q", opts.format)
	}

	deps, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	analysisSvc := service.NewAnalysisService(service.AnalysisServiceParams{
		Exams:          repository.NewExamRepository(deps.db),
		Results:        repository.NewResultRepository(deps.db),
		GradingSystems: repository.NewGradingSystemRepository(deps.db),
		Subjects:       repository.NewSubjectRepository(deps.db),
		Classes:        repository.NewClassRepository(deps.db),
		Students:       repository.NewStudentRepository(deps.db),
		Metrics:        service.NewMetricsService(),
		Logger:         deps.logger,
		Config:         service.AnalysisServiceConfig{TrendExams: deps.cfg.Analysis.TrendExams},
	})
	result, _, err := analysisSvc.Analyze(cmd.Context(), opts.examID, opts.classID, true)
	if err != nil {
		return err
	}

	payload, err := encodeAnalysis(result, opts.format, models.ReportType(opts.report))
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), opts.out, payload)
}

// encodeAnalysis renders result as indented JSON or as a CSV/PDF table.
func encodeAnalysis(result *dto.ClassAnalysis, format string, report models.ReportType) ([]byte, error) {
	if format == "json" {
		return json.MarshalIndent(result, "", "  ")
	}
	dataset, err := service.BuildDataset(report, result)
	if err != nil {
		return nil, err
	}
	exporter := service.NewExportService(nil, nil, nil, service.ExportConfig{}, nil, nil, nil)
	return exporter.Render(models.ReportFormat(format), dataset)
}

func writeOutput(stdout io.Writer, path string, payload []byte) error {
	if path == "" {
		_, err := stdout.Write(payload)
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "wrote %d bytes to %s\n", len(payload), path)
	return nil
}
