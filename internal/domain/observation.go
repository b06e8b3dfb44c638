package domain

import "time"

// WeatherObservation is a current-conditions reading or one bucket of a
// short-horizon forecast. It is fetched per request and never persisted.
type WeatherObservation struct {
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // relative, %
	Rainfall    float64   `json:"rainfall"`    // mm
	Condition   string    `json:"condition"`
	Icon        string    `json:"icon,omitempty"`
	ObservedAt  time.Time `json:"observed_at"`
}

// ModelForecastPoint is one month of an upstream multi-month forecast.
type ModelForecastPoint struct {
	Month       string  `json:"month"`
	Risk        float64 `json:"risk"`
	Temperature float64 `json:"temperature"`
	Rainfall    float64 `json:"rainfall"`
	Source      string  `json:"source"`
}
