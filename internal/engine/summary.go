package engine

import (
	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// ForecastSummary condenses a forecast into its mean and peak.
type ForecastSummary struct {
	Mean       float64     `json:"mean"`
	Peak       float64     `json:"peak"`
	PeakMonth  string      `json:"peak_month"`
	PeakTier   domain.Tier `json:"peak_tier"`
	LivePoints int         `json:"live_points"`
}

// Summarize returns the mean and peak risk of points. The earliest month wins
// a tie for peak. An empty forecast yields the zero summary.
func Summarize(points []domain.ForecastPoint) ForecastSummary {
	if len(points) == 0 {
		return ForecastSummary{}
	}
	risks := make([]float64, len(points))
	peak := 0
	live := 0
	for i, p := range points {
		risks[i] = p.Risk
		if p.Risk > points[peak].Risk {
			peak = i
		}
		if p.Live {
			live++
		}
	}
	return ForecastSummary{
		Mean:       stat.Mean(risks, nil),
		Peak:       points[peak].Risk,
		PeakMonth:  points[peak].Month,
		PeakTier:   points[peak].Tier,
		LivePoints: live,
	}
}
