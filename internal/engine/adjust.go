package engine

import "github.com/couchcryptid/disease-risk-service/internal/domain"

// Live adjustment bonuses and their trigger thresholds.
const (
	rainfallBonus    = 10.0
	rainfallTrigger  = 100.0 // mm
	optimalBandBonus = 5.0
	extremeHeatBonus = 15.0
	extremeHeatAbove = 40.0 // °C
	coldBonus        = 10.0
	coldBelow        = 20.0 // °C
)

// adjustmentOrder is the order rules are evaluated and reported in, whatever
// order a profile lists them.
var adjustmentOrder = []domain.AdjustmentRule{
	domain.AdjustRainfall,
	domain.AdjustOptimalBand,
	domain.AdjustExtremeHeat,
	domain.AdjustCold,
}

// liveAdjustment sums the bonuses of every rule the disease opts into that
// fires for obs. Bonuses are never negative and each rule applies once.
func liveAdjustment(d domain.DiseaseProfile, obs domain.WeatherObservation) (float64, []domain.AdjustmentRule) {
	var (
		total float64
		fired []domain.AdjustmentRule
	)
	for _, rule := range adjustmentOrder {
		if !d.Adjusts(rule) {
			continue
		}
		bonus, ok := adjustmentFor(rule, d, obs)
		if !ok {
			continue
		}
		total += bonus
		fired = append(fired, rule)
	}
	return total, fired
}

func adjustmentFor(rule domain.AdjustmentRule, d domain.DiseaseProfile, obs domain.WeatherObservation) (float64, bool) {
	switch rule {
	case domain.AdjustRainfall:
		return rainfallBonus, obs.Rainfall > rainfallTrigger
	case domain.AdjustOptimalBand:
		return optimalBandBonus, d.OptimalTemperature.Contains(obs.Temperature)
	case domain.AdjustExtremeHeat:
		return extremeHeatBonus, obs.Temperature > extremeHeatAbove
	case domain.AdjustCold:
		return coldBonus, obs.Temperature < coldBelow
	default:
		return 0, false
	}
}
