package engine

import (
	"math"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
)

const (
	scoreInBand     = 40.0
	scoreNearMid    = 25.0
	nearMidDistance = 5.0
)

// Rainfall score table. A disease meets its condition when rainfall is on
// the listed side of the threshold.
var rainfallScores = map[domain.RainfallSensitivity]struct {
	threshold float64
	above     bool
	score     float64
}{
	domain.SensitivityVeryHigh: {threshold: 200, above: true, score: 40},
	domain.SensitivityHigh:     {threshold: 100, above: true, score: 35},
	domain.SensitivityMedium:   {threshold: 50, above: true, score: 20},
	domain.SensitivityLow:      {threshold: 50, above: false, score: 30},
}

// simulate is the climatology heuristic: temperature band score plus
// rainfall sensitivity score plus seasonal bonus, clamped to [0,100].
func simulate(d domain.DiseaseProfile, month int, temp, rain float64) float64 {
	return domain.ClampRisk(temperatureScore(d.OptimalTemperature, temp) +
		rainfallScore(d.RainfallSensitivity, rain) +
		seasonalBonus(d.Season, month))
}

func temperatureScore(band domain.TemperatureRange, temp float64) float64 {
	switch {
	case band.Contains(temp):
		return scoreInBand
	case math.Abs(temp-band.Midpoint()) < nearMidDistance:
		return scoreNearMid
	default:
		return 0
	}
}

func rainfallScore(s domain.RainfallSensitivity, rain float64) float64 {
	rule, ok := rainfallScores[s]
	if !ok {
		return 0
	}
	if rule.above && rain > rule.threshold || !rule.above && rain < rule.threshold {
		return rule.score
	}
	return 0
}

func seasonalBonus(s domain.Season, month int) float64 {
	if s.Contains(month) {
		return s.Bonus
	}
	return 0
}
