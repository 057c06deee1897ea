package models

// ChartConfig is a Chart.js compatible chart definition handed to the image service.
type ChartConfig struct {
	Type    string                 `json:"type"`
	Data    ChartData              `json:"data"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// ChartData carries labels and series.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDataset is one numeric series; nil points render as gaps.
type ChartDataset struct {
	Label           string     `json:"label"`
	Data            []*float64 `json:"data"`
	BorderColor     string     `json:"borderColor,omitempty"`
	BackgroundColor string     `json:"backgroundColor,omitempty"`
	Fill            bool       `json:"fill"`
}

// ChartImage is a rendered chart, or a placeholder when rendering failed.
type ChartImage struct {
	ContentType string `json:"content_type"`
	DataURI     string `json:"data_uri"`
	Placeholder bool   `json:"placeholder"`
}
