package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-analysis/internal/models"
	"github.com/noah-isme/sma-result-analysis/pkg/config"
)

// placeholderPNG is a 1x1 transparent PNG returned when rendering fails.
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

const maxChartBytes = 2 << 20

// ChartService renders chart configs through a QuickChart compatible HTTP endpoint.
type ChartService struct {
	cfg     config.ChartsConfig
	client  *http.Client
	metrics *MetricsService
	logger  *zap.Logger
}

// NewChartService constructs a ChartService. client may be nil.
func NewChartService(cfg config.ChartsConfig, client *http.Client, metrics *MetricsService, logger *zap.Logger) *ChartService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartService{cfg: cfg, client: client, metrics: metrics, logger: logger}
}

type chartRequest struct {
	Chart           models.ChartConfig `json:"chart"`
	Width           int                `json:"width"`
	Height          int                `json:"height"`
	Format          string             `json:"format"`
	BackgroundColor string             `json:"backgroundColor"`
}

// Render returns the rendered PNG as a data URI. It never fails: any error
// yields a placeholder image.
func (s *ChartService) Render(ctx context.Context, chart models.ChartConfig) models.ChartImage {
	if !s.cfg.Enabled || s.cfg.ServiceURL == "" {
		return Placeholder()
	}
	image, err := s.render(ctx, chart)
	if err != nil {
		s.metrics.IncChartFailure()
		s.logger.Warn("chart render failed, using placeholder", zap.String("type", chart.Type), zap.Error(err))
		return Placeholder()
	}
	return image
}

func (s *ChartService) render(ctx context.Context, chart models.ChartConfig) (models.ChartImage, error) {
	payload, err := json.Marshal(chartRequest{Chart: chart, Width: 600, Height: 320, Format: "png", BackgroundColor: "white"})
	if err != nil {
		return models.ChartImage{}, fmt.Errorf("encode chart: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ServiceURL, bytes.NewReader(payload))
	if err != nil {
		return models.ChartImage{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return models.ChartImage{}, err
	}
	defer resp.Body.Close()
	s.metrics.ObserveHTTPRequest(http.MethodPost, "chart_service", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return models.ChartImage{}, fmt.Errorf("chart service returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxChartBytes))
	if err != nil {
		return models.ChartImage{}, fmt.Errorf("read chart: %w", err)
	}
	if len(body) == 0 {
		return models.ChartImage{}, fmt.Errorf("chart service returned an empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}
	return models.ChartImage{
		ContentType: contentType,
		DataURI:     "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body),
	}, nil
}

// Placeholder is the image used whenever a chart cannot be rendered.
func Placeholder() models.ChartImage {
	return models.ChartImage{
		ContentType: "image/png",
		DataURI:     "data:image/png;base64," + placeholderPNG,
		Placeholder: true,
	}
}
