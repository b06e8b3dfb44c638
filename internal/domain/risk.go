package domain

import (
	"encoding/json"
	"math"
)

// Tier thresholds. A risk of exactly 40 or 70 is Medium.
const (
	MediumThreshold = 40.0
	HighThreshold   = 70.0
)

// Tier is the coarse display bucket of a risk value.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// TierFor buckets a risk value: Low < 40, Medium 40-70, High > 70.
func TierFor(risk float64) Tier {
	switch {
	case risk > HighThreshold:
		return TierHigh
	case risk >= MediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// ClampRisk bounds v to [0, 100]. NaN maps to 0.
func ClampRisk(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Source identifies the data tier that produced a risk value.
type Source string

const (
	SourceAuthoritative Source = "authoritative"
	SourceSimulated     Source = "simulated"
	SourceModel         Source = "model"
)

// Provenance records which tier produced a risk value and whether live
// conditions took part.
type Provenance struct {
	Source      Source           `json:"source"`
	Live        bool             `json:"live"`
	Adjustments []AdjustmentRule `json:"adjustments,omitempty"`
}

// Assessment is a resolved risk value for one (city, disease, month).
type Assessment struct {
	City       string     `json:"city"`
	Disease    DiseaseID  `json:"disease"`
	Month      int        `json:"month"`
	Value      float64    `json:"value"`
	Tier       Tier       `json:"tier"`
	Provenance Provenance `json:"provenance"`
}

// Origin says which input path produced a forecast point.
type Origin string

const (
	OriginModel      Origin = "model"      // upstream multi-month forecast
	OriginLive       Origin = "live"       // live short-horizon forecast bucket
	OriginHistorical Origin = "historical" // authoritative table or climatology only
)

// ForecastPoint is one month of a forward-looking risk sequence.
type ForecastPoint struct {
	Month       string     `json:"month"`
	MonthIndex  int        `json:"month_index"`
	Risk        float64    `json:"risk"`
	Temperature float64    `json:"temperature"`
	Rainfall    float64    `json:"rainfall"`
	Tier        Tier       `json:"tier"`
	Origin      Origin     `json:"origin"`
	Live        bool       `json:"live"`
	Provenance  Provenance `json:"provenance"`
}

// Trend compares next month's risk with the current month's.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// TrendOf returns the direction from current to next.
func TrendOf(current, next float64) Trend {
	switch {
	case next > current:
		return TrendUp
	case next < current:
		return TrendDown
	default:
		return TrendStable
	}
}

// RankingEntry is one city in a regional ranking for a disease.
type RankingEntry struct {
	City          string  `json:"city"`
	Risk          float64 `json:"risk"`
	NextMonthRisk float64 `json:"next_month_risk"`
	Trend         Trend   `json:"trend"`
	Tier          Tier    `json:"tier"`
}

// ComparisonRow holds the risk of every disease for one month of a city.
type ComparisonRow struct {
	Month      string
	MonthIndex int
	Risks      map[DiseaseID]float64
}

// MarshalJSON flattens the row to {"month": "Aug", "<diseaseId>": risk, ...}.
func (r ComparisonRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Risks)+2)
	for id, risk := range r.Risks {
		out[string(id)] = risk
	}
	out["month"] = r.Month
	out["month_index"] = r.MonthIndex
	return json.Marshal(out)
}
