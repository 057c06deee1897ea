package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-result-analysis/internal/dto"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	"github.com/noah-isme/sma-result-analysis/internal/repository"
	"github.com/noah-isme/sma-result-analysis/internal/service"
)

// gradingFile is the YAML layout accepted by `grading validate --file`.
type gradingFile struct {
	Systems []models.GradingSystem `yaml:"systems"`
}

func runGradingValidate(cmd *cobra.Command, opts *gradingOptions) error {
	var results []dto.GradingValidation
	if opts.file != "" {
		systems, err := loadGradingFile(opts.file)
		if err != nil {
			return err
		}
		for i := range systems {
			results = append(results, *service.Check(&systems[i]))
		}
	} else {
		deps, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		gradingSvc := service.NewGradingService(repository.NewGradingSystemRepository(deps.db), deps.logger)
		if opts.id != "" {
			result, err := gradingSvc.ValidateStored(cmd.Context(), opts.id)
			if result == nil {
				return err
			}
			results = append(results, *result)
		} else {
			results, err = gradingSvc.ValidateAll(cmd.Context())
			if err != nil {
				return err
			}
		}
	}
	return reportValidations(cmd.OutOrStdout(), results)
}

func loadGradingFile(path string) ([]models.GradingSystem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file gradingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Systems) == 0 {
		return nil, fmt.Errorf("%s: no grading systems defined", path)
	}
	return file.Systems, nil
}

// reportValidations prints one line per system and fails when any is invalid.
func reportValidations(w io.Writer, results []dto.GradingValidation) error {
	invalid := 0
	for _, result := range results {
		name := result.Name
		if name == "" {
			name = result.GradingSystemID
		}
		if result.Valid {
			fmt.Fprintf(w, "OK       %s\n", name)
			continue
		}
		invalid++
		fmt.Fprintf(w, "INVALID  %s: %s\n", name, strings.Join(result.Issues, "; "))
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d grading systems invalid", invalid, len(results))
	}
	return nil
}
