// Package openweather implements domain.LiveSource on the OpenWeather 2.5 API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/observability"
)

// Client fetches current conditions and the 5-day / 3-hour forecast.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeather client rooted at baseURL
// (normally https://api.openweathermap.org/data/2.5).
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Current returns the latest observation for city.
func (c *Client) Current(ctx context.Context, city string) (domain.WeatherObservation, error) {
	var resp currentResponse
	if err := c.get(ctx, "weather", city, &resp); err != nil {
		return domain.WeatherObservation{}, err
	}

	obs := domain.WeatherObservation{
		Temperature: resp.Main.Temp,
		Humidity:    resp.Main.Humidity,
		Rainfall:    resp.Rain.OneHour,
		ObservedAt:  time.Unix(resp.Dt, 0).UTC(),
	}
	if len(resp.Weather) > 0 {
		obs.Condition = resp.Weather[0].Description
		obs.Icon = resp.Weather[0].Icon
	}
	return obs, nil
}

// Forecast returns one observation per calendar day (UTC) of the 3-hour
// forecast: mean temperature and humidity, total rainfall, and the first
// slot's condition.
func (c *Client) Forecast(ctx context.Context, city string) ([]domain.WeatherObservation, error) {
	var resp forecastResponse
	if err := c.get(ctx, "forecast", city, &resp); err != nil {
		return nil, err
	}
	return dailyBuckets(resp.List), nil
}

func (c *Client) get(ctx context.Context, endpoint, city string, out any) error {
	params := url.Values{
		"q":     {city},
		"units": {"metric"},
		"appid": {c.apiKey},
	}
	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.LiveAPIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.LiveRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s request for %s: %w", endpoint, city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.LiveRequests.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.LiveRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	c.metrics.LiveRequests.WithLabelValues(endpoint, "success").Inc()
	c.logger.Debug("openweather request", "endpoint", endpoint, "city", city)
	return nil
}

func dailyBuckets(slots []forecastSlot) []domain.WeatherObservation {
	var (
		out   []domain.WeatherObservation
		count int
		day   time.Time
	)
	flush := func() {
		if count == 0 {
			return
		}
		last := &out[len(out)-1]
		last.Temperature /= float64(count)
		last.Humidity /= float64(count)
	}

	for _, s := range slots {
		ts := time.Unix(s.Dt, 0).UTC()
		d := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		if count == 0 || !d.Equal(day) {
			flush()
			day, count = d, 0
			obs := domain.WeatherObservation{ObservedAt: d}
			if len(s.Weather) > 0 {
				obs.Condition = s.Weather[0].Description
				obs.Icon = s.Weather[0].Icon
			}
			out = append(out, obs)
		}
		cur := &out[len(out)-1]
		cur.Temperature += s.Main.Temp
		cur.Humidity += s.Main.Humidity
		cur.Rainfall += s.Rain.ThreeHours
		count++
	}
	flush()
	return out
}

// OpenWeather API response types.

type currentResponse struct {
	Dt      int64       `json:"dt"`
	Main    mainBlock   `json:"main"`
	Weather []condition `json:"weather"`
	Rain    struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}

type forecastResponse struct {
	List []forecastSlot `json:"list"`
}

type forecastSlot struct {
	Dt      int64       `json:"dt"`
	Main    mainBlock   `json:"main"`
	Weather []condition `json:"weather"`
	Rain    struct {
		ThreeHours float64 `json:"3h"`
	} `json:"rain"`
}

type mainBlock struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

type condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}
