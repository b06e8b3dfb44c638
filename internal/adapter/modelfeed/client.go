// Package modelfeed implements domain.ModelSource against an upstream
// analytics service that publishes multi-month risk forecasts.
package modelfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/observability"
)

// Client calls GET {baseURL}/forecast/{city}?disease={id}&months={n}.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a model feed client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// MonthlyForecast returns up to months points in chronological order.
func (c *Client) MonthlyForecast(ctx context.Context, city string, disease domain.DiseaseID, months int) ([]domain.ModelForecastPoint, error) {
	params := url.Values{
		"disease": {string(disease)},
		"months":  {strconv.Itoa(months)},
	}
	fullURL := fmt.Sprintf("%s/forecast/%s?%s", c.baseURL, url.PathEscape(city), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ModelRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("model forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No model for this pair; not an error for the caller.
		c.metrics.ModelRequests.WithLabelValues("success").Inc()
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.ModelRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model feed error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ModelRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read model forecast: %w", err)
	}
	entries, err := decodeEntries(body)
	if err != nil {
		c.metrics.ModelRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	c.metrics.ModelRequests.WithLabelValues("success").Inc()
	if len(entries) > months {
		entries = entries[:months]
	}
	points := make([]domain.ModelForecastPoint, len(entries))
	for i, e := range entries {
		points[i] = e.toPoint()
	}
	c.logger.Debug("model forecast fetched", "city", city, "disease", disease, "points", len(points))
	return points, nil
}

// decodeEntries accepts either a bare array or {"forecast": [...]}.
func decodeEntries(body []byte) ([]entry, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var entries []entry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("%w: decode model forecast: %v", domain.ErrMalformedPayload, err)
		}
		return entries, nil
	}
	var wrapped struct {
		Forecast []entry `json:"forecast"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: decode model forecast: %v", domain.ErrMalformedPayload, err)
	}
	return wrapped.Forecast, nil
}

// entry is one upstream point. Different model versions report temperature
// under different names; the first present one wins.
type entry struct {
	Month       string   `json:"month"`
	Risk        float64  `json:"risk"`
	Temperature *float64 `json:"temperature"`
	TempMax     *float64 `json:"temp_max"`
	Temp        *float64 `json:"temp"`
	Rainfall    float64  `json:"rainfall"`
	Source      string   `json:"source"`
}

func (e entry) toPoint() domain.ModelForecastPoint {
	p := domain.ModelForecastPoint{
		Month:    e.Month,
		Risk:     domain.ClampRisk(e.Risk),
		Rainfall: e.Rainfall,
		Source:   e.Source,
	}
	for _, t := range []*float64{e.Temperature, e.TempMax, e.Temp} {
		if t != nil {
			p.Temperature = *t
			break
		}
	}
	return p
}

var _ domain.ModelSource = (*Client)(nil)
