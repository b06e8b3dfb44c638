package registry

import (
	"bytes"
	_ "embed"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
)

var (
	//go:embed data/diseases.json
	defaultDiseaseFeed []byte

	//go:embed data/cities.json
	defaultCityFeed []byte
)

// Default returns the registry built from the embedded feeds: five diseases and
// eight Indian cities.
func Default() (*Registry, error) {
	return LoadFiles("", "")
}

func defaultDiseases() ([]domain.DiseaseProfile, error) {
	return ParseDiseases(bytes.NewReader(defaultDiseaseFeed))
}

func defaultCities() ([]domain.CityProfile, error) {
	return ParseCities(bytes.NewReader(defaultCityFeed))
}
