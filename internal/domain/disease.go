package domain

import "fmt"

// DiseaseID is the canonical identifier for a disease.
type DiseaseID string

const (
	Malaria     DiseaseID = "malaria"
	Dengue      DiseaseID = "dengue"
	Cholera     DiseaseID = "cholera"
	HeatStroke  DiseaseID = "heatStroke"
	Respiratory DiseaseID = "respiratory"
)

// RainfallSensitivity describes how strongly rainfall drives a disease.
type RainfallSensitivity string

const (
	SensitivityLow      RainfallSensitivity = "low"
	SensitivityMedium   RainfallSensitivity = "medium"
	SensitivityHigh     RainfallSensitivity = "high"
	SensitivityVeryHigh RainfallSensitivity = "very-high"
)

// Valid reports whether s is one of the known sensitivity levels.
func (s RainfallSensitivity) Valid() bool {
	switch s {
	case SensitivityLow, SensitivityMedium, SensitivityHigh, SensitivityVeryHigh:
		return true
	default:
		return false
	}
}

// AdjustmentRule names a bounded live-weather adjustment applied on top of an
// authoritative risk value.
type AdjustmentRule string

const (
	AdjustRainfall    AdjustmentRule = "rainfall"     // heavy rainfall
	AdjustOptimalBand AdjustmentRule = "optimal-band" // temperature inside the optimal band
	AdjustExtremeHeat AdjustmentRule = "extreme-heat" // heat-related illness
	AdjustCold        AdjustmentRule = "cold"         // respiratory illness
)

// Valid reports whether r is a known adjustment rule.
func (r AdjustmentRule) Valid() bool {
	switch r {
	case AdjustRainfall, AdjustOptimalBand, AdjustExtremeHeat, AdjustCold:
		return true
	default:
		return false
	}
}

// TemperatureRange is an inclusive band in degrees Celsius.
type TemperatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether t lies inside the band, bounds included.
func (r TemperatureRange) Contains(t float64) bool {
	return t >= r.Min && t <= r.Max
}

// Midpoint returns the centre of the band.
func (r TemperatureRange) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// Season is the set of months in which a fixed additive bonus applies.
type Season struct {
	months [12]bool
	Bonus  float64
}

// NewSeason builds a season from zero-based month indexes.
func NewSeason(bonus float64, months ...int) (Season, error) {
	s := Season{Bonus: bonus}
	for _, m := range months {
		if m < 0 || m > 11 {
			return Season{}, fmt.Errorf("season month %d out of range 0-11", m)
		}
		s.months[m] = true
	}
	return s, nil
}

// Contains reports whether month falls inside the season.
func (s Season) Contains(month int) bool {
	if month < 0 || month > 11 {
		return false
	}
	return s.months[month]
}

// Months returns the season's month indexes in ascending order.
func (s Season) Months() []int {
	var out []int
	for m, in := range s.months {
		if in {
			out = append(out, m)
		}
	}
	return out
}

// DiseaseProfile holds the climate sensitivity parameters of one disease.
// Profiles are immutable once loaded.
type DiseaseProfile struct {
	ID                  DiseaseID
	Name                string
	Aliases             []string
	OptimalTemperature  TemperatureRange
	RainfallSensitivity RainfallSensitivity
	Season              Season
	LiveAdjustments     []AdjustmentRule
}

// Adjusts reports whether the profile opts into the given live adjustment rule.
func (p DiseaseProfile) Adjusts(rule AdjustmentRule) bool {
	for _, r := range p.LiveAdjustments {
		if r == rule {
			return true
		}
	}
	return false
}
