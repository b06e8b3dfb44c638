package engine

import "github.com/couchcryptid/disease-risk-service/internal/domain"

// query is a validated resolution request. live is non-nil only for the
// current calendar month.
type query struct {
	city    domain.CityProfile
	disease domain.DiseaseProfile
	month   int
	live    *domain.WeatherObservation
}

type resolution struct {
	value      float64
	provenance domain.Provenance
}

// tier produces a resolution or reports that it has no data for the query.
type tier func(q query) (resolution, bool)

// firstSuccess returns the first tier result that reports success.
func firstSuccess(tiers ...tier) tier {
	return func(q query) (resolution, bool) {
		for _, t := range tiers {
			if r, ok := t(q); ok {
				return r, true
			}
		}
		return resolution{}, false
	}
}

// authoritative reads the precomputed table and, for the current month, lets
// live conditions raise the value through the disease's adjustment rules.
func (e *Engine) authoritative(q query) (resolution, bool) {
	base, ok := e.table.Lookup(q.city.Name, q.disease.ID, q.month)
	if !ok {
		return resolution{}, false
	}
	r := resolution{
		value:      domain.ClampRisk(base),
		provenance: domain.Provenance{Source: domain.SourceAuthoritative},
	}
	if q.live == nil {
		return r, true
	}

	bonus, fired := liveAdjustment(q.disease, *q.live)
	r.value = domain.ClampRisk(r.value + bonus)
	r.provenance.Live = true
	r.provenance.Adjustments = fired
	return r, true
}

// simulated scores the month from climatology, substituting live temperature
// and rainfall when present. It always succeeds.
func (e *Engine) simulated(q query) (resolution, bool) {
	temp, rain := q.city.Climate(q.month)
	if q.live != nil {
		temp, rain = q.live.Temperature, q.live.Rainfall
	}
	return resolution{
		value: simulate(q.disease, q.month, temp, rain),
		provenance: domain.Provenance{
			Source: domain.SourceSimulated,
			Live:   q.live != nil,
		},
	}, true
}
