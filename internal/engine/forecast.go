package engine

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
)

// MaxHorizon is the longest forecast, in months.
const MaxHorizon = 12

// ForecastInputs carries the optional inputs of a forecast. Model points
// apply to the month their label names, regardless of position; Live[i]
// applies to offset i from the current month. Missing or nil entries fall
// through to the next path.
type ForecastInputs struct {
	Model []domain.ModelForecastPoint
	Live  []*domain.WeatherObservation
}

// Forecast returns horizon monthly points starting at the current month and
// wrapping at December. Each point independently takes the upstream model
// value when present, else a live-adjusted resolution, else the historical
// resolution.
func (e *Engine) Forecast(city, disease string, horizon int, in ForecastInputs) ([]domain.ForecastPoint, error) {
	c, d, err := e.lookup(city, disease)
	if err != nil {
		return nil, err
	}
	if horizon < 1 || horizon > MaxHorizon {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidHorizon, horizon)
	}

	start := e.CurrentMonth()
	model := modelByMonth(in.Model)
	points := make([]domain.ForecastPoint, horizon)
	for i := range points {
		month := domain.NormalizeMonth(start + i)
		points[i] = e.forecastPoint(c, d, month, i, model, in.Live)
	}
	return points, nil
}

// modelByMonth indexes model points by the month their label names. Points
// with unrecognized labels are dropped; the first point for a month wins.
func modelByMonth(points []domain.ModelForecastPoint) map[int]domain.ModelForecastPoint {
	byMonth := make(map[int]domain.ModelForecastPoint, len(points))
	for _, p := range points {
		m, ok := domain.ParseMonthLabel(p.Month)
		if !ok {
			continue
		}
		if _, dup := byMonth[m]; !dup {
			byMonth[m] = p
		}
	}
	return byMonth
}

func (e *Engine) forecastPoint(c domain.CityProfile, d domain.DiseaseProfile, month, offset int, model map[int]domain.ModelForecastPoint, liveSeries []*domain.WeatherObservation) domain.ForecastPoint {
	if p, ok := model[month]; ok {
		return modelPoint(month, p)
	}

	var live *domain.WeatherObservation
	if offset < len(liveSeries) {
		live = liveSeries[offset]
	}

	a := e.assess(e.newQuery(c, d, month, live))
	temp, rain := c.Climate(month)
	origin := domain.OriginHistorical
	if live != nil {
		temp, rain = live.Temperature, live.Rainfall
		origin = domain.OriginLive
	}

	return domain.ForecastPoint{
		Month:       domain.MonthLabel(month),
		MonthIndex:  month,
		Risk:        a.Value,
		Temperature: temp,
		Rainfall:    rain,
		Tier:        a.Tier,
		Origin:      origin,
		Live:        live != nil,
		Provenance:  a.Provenance,
	}
}

func modelPoint(month int, p domain.ModelForecastPoint) domain.ForecastPoint {
	risk := domain.ClampRisk(p.Risk)
	live := liveModelSource(p.Source)
	return domain.ForecastPoint{
		Month:       domain.MonthLabel(month),
		MonthIndex:  month,
		Risk:        risk,
		Temperature: p.Temperature,
		Rainfall:    p.Rainfall,
		Tier:        domain.TierFor(risk),
		Origin:      domain.OriginModel,
		Live:        live,
		Provenance:  domain.Provenance{Source: domain.SourceModel, Live: live},
	}
}

// liveModelSource reports whether an upstream model point was driven by live
// weather rather than climatology alone.
func liveModelSource(source string) bool {
	return strings.Contains(source, "API") || strings.Contains(source, "OpenWeather")
}
