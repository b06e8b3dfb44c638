// Package registry holds the disease and city profile tables the risk engine
// scores against. Both tables are loaded once, validated eagerly, and never
// mutated afterwards.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
)

// Registry is an immutable index of disease and city profiles.
type Registry struct {
	diseases     map[domain.DiseaseID]domain.DiseaseProfile
	diseaseKeys  map[string]domain.DiseaseID // normalized key -> canonical id
	diseaseOrder []domain.DiseaseID

	cities    map[string]domain.CityProfile // lower-cased name -> profile
	cityOrder []string
}

// New indexes the given profiles. Every disease identifier, display name and
// alias must normalize to a key no other disease claims.
func New(diseases []domain.DiseaseProfile, cities []domain.CityProfile) (*Registry, error) {
	if len(diseases) == 0 {
		return nil, fmt.Errorf("%w: no disease profiles", domain.ErrMalformedPayload)
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("%w: no city profiles", domain.ErrMalformedPayload)
	}

	r := &Registry{
		diseases:    make(map[domain.DiseaseID]domain.DiseaseProfile, len(diseases)),
		diseaseKeys: make(map[string]domain.DiseaseID, len(diseases)*3),
		cities:      make(map[string]domain.CityProfile, len(cities)),
	}

	for _, p := range diseases {
		if _, dup := r.diseases[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate disease %q", domain.ErrMalformedPayload, p.ID)
		}
		r.diseases[p.ID] = p
		r.diseaseOrder = append(r.diseaseOrder, p.ID)

		keys := append([]string{string(p.ID), p.Name}, p.Aliases...)
		for _, k := range keys {
			nk := normalizeKey(k)
			if nk == "" {
				return nil, fmt.Errorf("%w: disease %q has an empty name or alias", domain.ErrMalformedPayload, p.ID)
			}
			if owner, taken := r.diseaseKeys[nk]; taken && owner != p.ID {
				return nil, fmt.Errorf("%w: key %q maps to both %q and %q", domain.ErrMalformedPayload, k, owner, p.ID)
			}
			r.diseaseKeys[nk] = p.ID
		}
	}

	for _, c := range cities {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("%w: city with empty name", domain.ErrMalformedPayload)
		}
		key := strings.ToLower(c.Name)
		if _, dup := r.cities[key]; dup {
			return nil, fmt.Errorf("%w: duplicate city %q", domain.ErrMalformedPayload, c.Name)
		}
		r.cities[key] = c
		r.cityOrder = append(r.cityOrder, c.Name)
	}

	sort.Slice(r.diseaseOrder, func(i, j int) bool { return r.diseaseOrder[i] < r.diseaseOrder[j] })
	sort.Strings(r.cityOrder)
	return r, nil
}

// LoadFiles reads the disease and city feeds from disk. An empty path selects
// the embedded default feed for that table.
func LoadFiles(diseasePath, cityPath string) (*Registry, error) {
	diseases, err := loadDiseaseFeed(diseasePath)
	if err != nil {
		return nil, err
	}
	cities, err := loadCityFeed(cityPath)
	if err != nil {
		return nil, err
	}
	return New(diseases, cities)
}

func loadDiseaseFeed(path string) ([]domain.DiseaseProfile, error) {
	if path == "" {
		return defaultDiseases()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open disease registry: %w", err)
	}
	defer f.Close()
	return ParseDiseases(f)
}

func loadCityFeed(path string) ([]domain.CityProfile, error) {
	if path == "" {
		return defaultCities()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open city registry: %w", err)
	}
	defer f.Close()
	return ParseCities(f)
}

// ResolveDisease maps an identifier, display name or alias to its canonical
// DiseaseID. Matching ignores case, spaces, hyphens and underscores, so
// "Heat Stroke", "heat-stroke" and "heatStroke" all resolve to the same id.
func (r *Registry) ResolveDisease(key string) (domain.DiseaseID, error) {
	id, ok := r.diseaseKeys[normalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownDisease, key)
	}
	return id, nil
}

// Disease returns the profile for any key ResolveDisease accepts.
func (r *Registry) Disease(key string) (domain.DiseaseProfile, error) {
	id, err := r.ResolveDisease(key)
	if err != nil {
		return domain.DiseaseProfile{}, err
	}
	return r.diseases[id], nil
}

// City returns the profile for name, matched case-insensitively.
func (r *Registry) City(name string) (domain.CityProfile, error) {
	c, ok := r.cities[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.CityProfile{}, fmt.Errorf("%w: %q", domain.ErrUnknownCity, name)
	}
	return c, nil
}

// Cities returns the canonical city names in alphabetical order.
func (r *Registry) Cities() []string {
	return append([]string(nil), r.cityOrder...)
}

// Diseases returns the canonical disease identifiers in sorted order.
func (r *Registry) Diseases() []domain.DiseaseID {
	return append([]domain.DiseaseID(nil), r.diseaseOrder...)
}

// normalizeKey folds case and drops spaces, hyphens and underscores.
func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
