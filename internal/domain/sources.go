package domain

import "context"

// LiveSource supplies current conditions and a short-horizon forecast series
// for a named city.
type LiveSource interface {
	// Current returns the latest observation for city.
	Current(ctx context.Context, city string) (WeatherObservation, error)

	// Forecast returns a chronologically ordered short-horizon series for city,
	// one observation per bucket.
	Forecast(ctx context.Context, city string) ([]WeatherObservation, error)
}

// ModelSource supplies an upstream multi-month risk forecast.
type ModelSource interface {
	MonthlyForecast(ctx context.Context, city string, disease DiseaseID, months int) ([]ModelForecastPoint, error)
}
