package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-analysis/pkg/config"
	"github.com/noah-isme/sma-result-analysis/pkg/database"
	"github.com/noah-isme/sma-result-analysis/pkg/logger"
)

type analyzeOptions struct {
	examID  string
	classID string
	report  string
	format  string
	out     string
}

type gradingOptions struct {
	id   string
	file string
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "resultctl",
		Short:         "Run exam result analyses outside the API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newAnalyzeCmd(), newGradingCmd())
	return rootCmd
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one exam for one class",
		Example: `  resultctl analyze --exam EXAM_ID --class CLASS_ID
  resultctl analyze --exam EXAM_ID --class CLASS_ID --format pdf --report subject_performance --out subjects.pdf`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.examID, "exam", "", "exam id")
	cmd.Flags().StringVar(&opts.classID, "class", "", "class id")
	cmd.Flags().StringVar(&opts.format, "format", "json", "output format: json, csv or pdf")
	cmd.Flags().StringVar(&opts.report, "report", "merit_list", "table for csv/pdf: merit_list, subject_performance or grade_distribution")
	cmd.Flags().StringVar(&opts.out, "out", "", "write to file instead of stdout")
	_ = cmd.MarkFlagRequired("exam")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

func newGradingCmd() *cobra.Command {
	gradingCmd := &cobra.Command{
		Use:   "grading",
		Short: "Inspect grading systems",
	}
	opts := &gradingOptions{}
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that grade bands cover 0-100 without gaps or overlaps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGradingValidate(cmd, opts)
		},
	}
	validateCmd.Flags().StringVar(&opts.id, "id", "", "validate a single stored grading system")
	validateCmd.Flags().StringVar(&opts.file, "file", "", "validate grading systems from a YAML file instead of the database")
	validateCmd.MarkFlagsMutuallyExclusive("id", "file")
	gradingCmd.AddCommand(validateCmd)
	return gradingCmd
}

// runtimeDeps holds the process-wide resources a database-backed command needs.
type runtimeDeps struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
}

func openRuntime(ctx context.Context) (*runtimeDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &runtimeDeps{cfg: cfg, logger: logr, db: db}, nil
}

func (d *runtimeDeps) Close() {
	_ = d.db.Close()
	_ = d.logger.Sync()
}
