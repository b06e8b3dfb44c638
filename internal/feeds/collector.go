// Package feeds gathers the optional live and model inputs of a risk query.
// Every fetch runs under its own timeout; a failed or slow source is logged,
// counted and left out so the engine falls through to its next tier.
package feeds

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/engine"
	"github.com/couchcryptid/disease-risk-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Config bounds each upstream fetch.
type Config struct {
	LiveTimeout  time.Duration
	ModelTimeout time.Duration
}

// Inputs holds whatever optional inputs were available for one query.
type Inputs struct {
	Current *domain.WeatherObservation
	Series  []domain.WeatherObservation
	Model   []domain.ModelForecastPoint
}

// ForecastInputs maps the gathered inputs onto forecast offsets: series
// bucket i feeds offset i. With no series, the current observation feeds
// offset 0.
func (in Inputs) ForecastInputs() engine.ForecastInputs {
	out := engine.ForecastInputs{Model: in.Model}
	switch {
	case len(in.Series) > 0:
		out.Live = make([]*domain.WeatherObservation, len(in.Series))
		for i := range in.Series {
			out.Live[i] = &in.Series[i]
		}
	case in.Current != nil:
		out.Live = []*domain.WeatherObservation{in.Current}
	}
	return out
}

// Collector fetches live and model inputs concurrently. Either source may be nil.
type Collector struct {
	live    domain.LiveSource
	model   domain.ModelSource
	cfg     Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCollector creates a Collector. Pass nil for a disabled source.
func NewCollector(live domain.LiveSource, model domain.ModelSource, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	return &Collector{
		live:    live,
		model:   model,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Collect gathers current conditions, the short-horizon series and the
// upstream model forecast for (city, disease). It never fails.
func (c *Collector) Collect(ctx context.Context, city string, disease domain.DiseaseID, months int) Inputs {
	start := time.Now()
	defer func() { c.metrics.FeedCollection.Observe(time.Since(start).Seconds()) }()

	var (
		in Inputs
		g  errgroup.Group
	)
	if c.live != nil {
		g.Go(func() error {
			in.Current = c.current(ctx, city)
			return nil
		})
		g.Go(func() error {
			in.Series = c.series(ctx, city)
			return nil
		})
	}
	if c.model != nil {
		g.Go(func() error {
			in.Model = c.modelForecast(ctx, city, disease, months)
			return nil
		})
	}
	_ = g.Wait()
	return in
}

// Current returns the live observation for city, or nil when unavailable.
func (c *Collector) Current(ctx context.Context, city string) *domain.WeatherObservation {
	if c.live == nil {
		return nil
	}
	return c.current(ctx, city)
}

func (c *Collector) current(ctx context.Context, city string) *domain.WeatherObservation {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.LiveTimeout)
	defer cancel()

	obs, err := c.live.Current(ctx, city)
	if err != nil {
		c.fallback("current", city, err)
		return nil
	}
	return &obs
}

func (c *Collector) series(ctx context.Context, city string) []domain.WeatherObservation {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.LiveTimeout)
	defer cancel()

	series, err := c.live.Forecast(ctx, city)
	if err != nil {
		c.fallback("forecast", city, err)
		return nil
	}
	return series
}

func (c *Collector) modelForecast(ctx context.Context, city string, disease domain.DiseaseID, months int) []domain.ModelForecastPoint {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ModelTimeout)
	defer cancel()

	points, err := c.model.MonthlyForecast(ctx, city, disease, months)
	if err != nil {
		c.fallback("model", city, err)
		return nil
	}
	return points
}

func (c *Collector) fallback(source, city string, err error) {
	c.metrics.FeedFallbacks.WithLabelValues(source).Inc()
	c.logger.Warn("optional input unavailable, falling through",
		"source", source,
		"city", city,
		"error", err,
	)
}
