// Package engine scores outbreak risk for (city, disease, month) queries.
//
// Every operation is a pure function of the registry, the risk table snapshot
// it reads, the clock's current month and the optional live inputs passed in.
// Missing optional inputs fall through to the next tier and are reported only
// through provenance; unknown cities and diseases are rejected up front.
package engine

import (
	"fmt"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Registry resolves city and disease identifiers into profiles.
type Registry interface {
	Disease(key string) (domain.DiseaseProfile, error)
	City(name string) (domain.CityProfile, error)
	Cities() []string
	Diseases() []domain.DiseaseID
}

// RiskTable supplies authoritative risk values. A miss is not an error.
type RiskTable interface {
	Lookup(city string, disease domain.DiseaseID, month int) (float64, bool)
}

// Engine resolves, forecasts and aggregates disease risk.
type Engine struct {
	registry Registry
	table    RiskTable
	clock    clockwork.Clock
	resolve  tier
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock that defines the current calendar month.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine over the given registry and risk table.
func New(registry Registry, table RiskTable, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		table:    table,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resolve = firstSuccess(e.authoritative, e.simulated)
	return e
}

// CurrentMonth returns the zero-based month index of the engine clock.
func (e *Engine) CurrentMonth() int {
	return domain.MonthOf(e.clock.Now())
}

// ResolveRisk returns the risk for one (city, disease, month). live is used
// only when month is the current calendar month; pass nil when no observation
// is available.
func (e *Engine) ResolveRisk(city, disease string, month int, live *domain.WeatherObservation) (domain.Assessment, error) {
	c, d, err := e.lookup(city, disease)
	if err != nil {
		return domain.Assessment{}, err
	}
	if month < 0 || month > 11 {
		return domain.Assessment{}, fmt.Errorf("%w: %d", domain.ErrInvalidMonth, month)
	}
	return e.assess(e.newQuery(c, d, month, live)), nil
}

// CurrentRisk resolves the risk for the current calendar month.
func (e *Engine) CurrentRisk(city, disease string, live *domain.WeatherObservation) (domain.Assessment, error) {
	return e.ResolveRisk(city, disease, e.CurrentMonth(), live)
}

func (e *Engine) lookup(city, disease string) (domain.CityProfile, domain.DiseaseProfile, error) {
	c, err := e.registry.City(city)
	if err != nil {
		return domain.CityProfile{}, domain.DiseaseProfile{}, err
	}
	d, err := e.registry.Disease(disease)
	if err != nil {
		return domain.CityProfile{}, domain.DiseaseProfile{}, err
	}
	return c, d, nil
}

func (e *Engine) newQuery(c domain.CityProfile, d domain.DiseaseProfile, month int, live *domain.WeatherObservation) query {
	q := query{city: c, disease: d, month: month}
	if live != nil && month == e.CurrentMonth() {
		q.live = live
	}
	return q
}

func (e *Engine) assess(q query) domain.Assessment {
	r, _ := e.resolve(q)
	return domain.Assessment{
		City:       q.city.Name,
		Disease:    q.disease.ID,
		Month:      q.month,
		Value:      r.value,
		Tier:       domain.TierFor(r.value),
		Provenance: r.provenance,
	}
}
