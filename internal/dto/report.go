package dto

import "github.com/noah-isme/sma-result-analysis/internal/models"

// ReportRequest captures POST /reports/analysis payload.
type ReportRequest struct {
	Type    models.ReportType   `json:"type" validate:"required,oneof=merit_list subject_performance grade_distribution"`
	ExamID  string              `json:"examId" validate:"required"`
	ClassID string              `json:"classId" validate:"required"`
	Format  models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportJobResponse is returned after enqueueing an export.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Type      models.ReportType   `json:"type"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
