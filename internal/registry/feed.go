package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
)

// diseaseRecord is one entry of the disease registry feed:
// {diseaseId: {name, aliases, optimalTemp:{min,max}, rainfallFactor, seasonalMonths, ...}}.
type diseaseRecord struct {
	Name            string                   `json:"name"`
	Aliases         []string                 `json:"aliases"`
	OptimalTemp     *domain.TemperatureRange `json:"optimalTemp"`
	RainfallFactor  string                   `json:"rainfallFactor"`
	SeasonalMonths  []int                    `json:"seasonalMonths"`
	SeasonalBonus   float64                  `json:"seasonalBonus"`
	LiveAdjustments []string                 `json:"liveAdjustments"`
}

// cityRecord is one entry of the city registry feed:
// {cityId: {monthlyTemp:[12], monthlyRainfall:[12]}}.
type cityRecord struct {
	MonthlyTemp     []float64 `json:"monthlyTemp"`
	MonthlyRainfall []float64 `json:"monthlyRainfall"`
}

// ParseDiseases decodes and validates a disease registry feed. Profiles are
// returned sorted by identifier.
func ParseDiseases(r io.Reader) ([]domain.DiseaseProfile, error) {
	var feed map[string]diseaseRecord
	if err := decodeStrict(r, &feed); err != nil {
		return nil, fmt.Errorf("%w: decode disease registry: %v", domain.ErrMalformedPayload, err)
	}
	if len(feed) == 0 {
		return nil, fmt.Errorf("%w: disease registry is empty", domain.ErrMalformedPayload)
	}

	profiles := make([]domain.DiseaseProfile, 0, len(feed))
	for id, rec := range feed {
		p, err := rec.toProfile(domain.DiseaseID(id))
		if err != nil {
			return nil, fmt.Errorf("%w: disease %q: %v", domain.ErrMalformedPayload, id, err)
		}
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

func (rec diseaseRecord) toProfile(id domain.DiseaseID) (domain.DiseaseProfile, error) {
	if normalizeKey(string(id)) == "" {
		return domain.DiseaseProfile{}, fmt.Errorf("empty identifier")
	}
	if rec.Name == "" {
		return domain.DiseaseProfile{}, fmt.Errorf("missing name")
	}
	if rec.OptimalTemp == nil {
		return domain.DiseaseProfile{}, fmt.Errorf("missing optimalTemp")
	}
	if !finite(rec.OptimalTemp.Min) || !finite(rec.OptimalTemp.Max) || rec.OptimalTemp.Min > rec.OptimalTemp.Max {
		return domain.DiseaseProfile{}, fmt.Errorf("invalid optimalTemp %v-%v", rec.OptimalTemp.Min, rec.OptimalTemp.Max)
	}
	sensitivity := domain.RainfallSensitivity(rec.RainfallFactor)
	if !sensitivity.Valid() {
		return domain.DiseaseProfile{}, fmt.Errorf("invalid rainfallFactor %q", rec.RainfallFactor)
	}
	if !finite(rec.SeasonalBonus) || rec.SeasonalBonus < 0 {
		return domain.DiseaseProfile{}, fmt.Errorf("invalid seasonalBonus %v", rec.SeasonalBonus)
	}
	season, err := domain.NewSeason(rec.SeasonalBonus, rec.SeasonalMonths...)
	if err != nil {
		return domain.DiseaseProfile{}, err
	}

	rules := make([]domain.AdjustmentRule, 0, len(rec.LiveAdjustments))
	for _, name := range rec.LiveAdjustments {
		rule := domain.AdjustmentRule(name)
		if !rule.Valid() {
			return domain.DiseaseProfile{}, fmt.Errorf("invalid liveAdjustments rule %q", name)
		}
		rules = append(rules, rule)
	}

	return domain.DiseaseProfile{
		ID:                  id,
		Name:                rec.Name,
		Aliases:             append([]string(nil), rec.Aliases...),
		OptimalTemperature:  *rec.OptimalTemp,
		RainfallSensitivity: sensitivity,
		Season:              season,
		LiveAdjustments:     rules,
	}, nil
}

// ParseCities decodes and validates a city registry feed. Climate arrays are
// indexed positionally by month, so anything other than exactly 12 finite
// values is rejected rather than padded or truncated.
func ParseCities(r io.Reader) ([]domain.CityProfile, error) {
	var feed map[string]cityRecord
	if err := decodeStrict(r, &feed); err != nil {
		return nil, fmt.Errorf("%w: decode city registry: %v", domain.ErrMalformedPayload, err)
	}
	if len(feed) == 0 {
		return nil, fmt.Errorf("%w: city registry is empty", domain.ErrMalformedPayload)
	}

	profiles := make([]domain.CityProfile, 0, len(feed))
	for name, rec := range feed {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: city with empty name", domain.ErrMalformedPayload)
		}
		temps, err := monthly(rec.MonthlyTemp)
		if err != nil {
			return nil, fmt.Errorf("%w: city %q monthlyTemp: %v", domain.ErrMalformedPayload, name, err)
		}
		rain, err := monthly(rec.MonthlyRainfall)
		if err != nil {
			return nil, fmt.Errorf("%w: city %q monthlyRainfall: %v", domain.ErrMalformedPayload, name, err)
		}
		for m, v := range rain {
			if v < 0 {
				return nil, fmt.Errorf("%w: city %q monthlyRainfall[%d] is negative", domain.ErrMalformedPayload, name, m)
			}
		}
		profiles = append(profiles, domain.CityProfile{
			Name:               name,
			MonthlyTemperature: temps,
			MonthlyRainfall:    rain,
		})
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

func monthly(values []float64) ([12]float64, error) {
	var out [12]float64
	if len(values) != 12 {
		return out, fmt.Errorf("expected 12 values, got %d", len(values))
	}
	for i, v := range values {
		if !finite(v) {
			return out, fmt.Errorf("value %d is not finite", i)
		}
		out[i] = v
	}
	return out, nil
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
