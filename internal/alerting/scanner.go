// Package alerting periodically scans every (city, disease) pair and
// publishes an alert for each pair whose current risk reaches the threshold.
package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/engine"
	"github.com/couchcryptid/disease-risk-service/internal/feeds"
	"github.com/couchcryptid/disease-risk-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Scorer is the subset of the engine the scanner needs.
type Scorer interface {
	CurrentRisk(city, disease string, live *domain.WeatherObservation) (domain.Assessment, error)
	ResolveRisk(city, disease string, month int, live *domain.WeatherObservation) (domain.Assessment, error)
	Forecast(city, disease string, horizon int, in engine.ForecastInputs) ([]domain.ForecastPoint, error)
	Advise(disease string, risk float64) (engine.Advice, error)
}

// Catalog enumerates the pairs to scan.
type Catalog interface {
	Cities() []string
	Diseases() []domain.DiseaseID
	Disease(key string) (domain.DiseaseProfile, error)
}

// InputCollector gathers optional live and model inputs for one pair.
type InputCollector interface {
	Collect(ctx context.Context, city string, disease domain.DiseaseID, months int) feeds.Inputs
}

// Publisher writes serialized alerts to the sink.
type Publisher interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Config controls scan cadence and thresholds.
type Config struct {
	Interval      time.Duration
	MinRisk       float64
	OutlookMonths int
}

// Scanner evaluates all pairs on a fixed interval and publishes alerts.
type Scanner struct {
	scorer    Scorer
	catalog   Catalog
	inputs    InputCollector
	publisher Publisher
	cfg       Config
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewScanner creates a Scanner. inputs may be nil when no optional source is
// configured.
func NewScanner(scorer Scorer, catalog Catalog, inputs InputCollector, publisher Publisher, cfg Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scanner {
	return &Scanner{
		scorer:    scorer,
		catalog:   catalog,
		inputs:    inputs,
		publisher: publisher,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run scans once immediately and then on every interval tick until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("alert scanner started",
		"interval", s.cfg.Interval,
		"min_risk", s.cfg.MinRisk,
	)
	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.Scan(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("alert scan failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Info("alert scanner stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// Scan evaluates every pair once and publishes the alerts in one batch.
// It returns the number of alerts published.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	start := s.clock.Now()
	s.metrics.AlertScans.Inc()
	defer func() { s.metrics.AlertScanDuration.Observe(s.clock.Since(start).Seconds()) }()

	var events []domain.OutputEvent
	for _, city := range s.catalog.Cities() {
		for _, disease := range s.catalog.Diseases() {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			a, ok, err := s.evaluate(ctx, city, disease, start)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			ev, err := serializeAlert(a)
			if err != nil {
				return 0, err
			}
			events = append(events, ev)
		}
	}

	if len(events) == 0 {
		s.logger.Debug("alert scan found nothing above threshold")
		return 0, nil
	}
	if err := s.publisher.LoadBatch(ctx, events); err != nil {
		s.metrics.AlertPublishErrors.Inc()
		return 0, fmt.Errorf("publish alerts: %w", err)
	}
	s.metrics.AlertsPublished.Add(float64(len(events)))
	s.logger.Info("alerts published", "count", len(events))
	return len(events), nil
}

// evaluate builds the alert for one pair, reporting false when the pair is
// below threshold.
func (s *Scanner) evaluate(ctx context.Context, city string, disease domain.DiseaseID, now time.Time) (Alert, bool, error) {
	var in feeds.Inputs
	if s.inputs != nil {
		in = s.inputs.Collect(ctx, city, disease, s.cfg.OutlookMonths)
	}

	current, err := s.scorer.CurrentRisk(city, string(disease), in.Current)
	if err != nil {
		return Alert{}, false, err
	}
	if current.Value < s.cfg.MinRisk {
		return Alert{}, false, nil
	}

	next, err := s.scorer.ResolveRisk(city, string(disease), domain.NormalizeMonth(current.Month+1), nil)
	if err != nil {
		return Alert{}, false, err
	}
	outlook, err := s.scorer.Forecast(city, string(disease), s.cfg.OutlookMonths, in.ForecastInputs())
	if err != nil {
		return Alert{}, false, err
	}
	advice, err := s.scorer.Advise(string(disease), current.Value)
	if err != nil {
		return Alert{}, false, err
	}
	profile, err := s.catalog.Disease(string(disease))
	if err != nil {
		return Alert{}, false, err
	}

	return Alert{
		ID:              AlertID(current.City, disease, now),
		City:            current.City,
		Disease:         disease,
		DiseaseName:     profile.Name,
		Risk:            current.Value,
		Tier:            current.Tier,
		NextMonthRisk:   next.Value,
		Trend:           domain.TrendOf(current.Value, next.Value),
		Headline:        advice.Headline,
		Recommendations: advice.Recommendations,
		Provenance:      current.Provenance,
		Outlook:         outlook,
		Summary:         engine.Summarize(outlook),
		GeneratedAt:     now.UTC(),
	}, true, nil
}
