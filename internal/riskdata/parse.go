package riskdata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
)

//go:embed data/risk_table.json
var defaultTable []byte

// Resolver maps external city and disease keys onto registry entries.
type Resolver interface {
	ResolveDisease(key string) (domain.DiseaseID, error)
	City(name string) (domain.CityProfile, error)
}

// Parse decodes a risk table of the form {city: {diseaseKey: [12 numbers or null]}}.
// Disease keys may be identifiers, display names or aliases; every key must
// map onto the registry or the whole table is rejected.
func Parse(r io.Reader, res Resolver) (*Table, error) {
	var feed map[string]map[string][]*float64
	if err := json.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: decode risk table: %v", domain.ErrMalformedPayload, err)
	}

	updates := make([]Update, 0, len(feed)*5)
	seen := make(map[Key]string)
	for city, diseases := range feed {
		for disease, risks := range diseases {
			u, err := ParseUpdate(city, disease, risks, res)
			if err != nil {
				return nil, tableError(err)
			}
			k := Key{City: u.City, Disease: u.Disease}
			if prev, dup := seen[k]; dup {
				return nil, fmt.Errorf("%w: risk table: %s keys %q and %q both map to %s",
					domain.ErrMalformedPayload, u.City, prev, disease, u.Disease)
			}
			seen[k] = disease
			updates = append(updates, u)
		}
	}
	return NewTable(updates...), nil
}

// tableError marks registry lookup failures inside a table as malformed
// payload while keeping the underlying cause matchable.
func tableError(err error) error {
	if errors.Is(err, domain.ErrMalformedPayload) {
		return fmt.Errorf("risk table: %w", err)
	}
	return fmt.Errorf("%w: risk table: %w", domain.ErrMalformedPayload, err)
}

// LoadFile reads a risk table from path. An empty path selects the embedded
// default table.
func LoadFile(path string, res Resolver) (*Table, error) {
	if path == "" {
		return Parse(bytes.NewReader(defaultTable), res)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open risk table: %w", err)
	}
	defer f.Close()
	return Parse(f, res)
}

// ParseUpdate validates one row of risk values and maps its keys onto the
// registry. risks must hold exactly 12 entries; a nil entry marks a month
// without an authoritative value.
//
// Registry lookup errors are returned as-is so callers can tell an unknown
// city or disease apart from a malformed row.
func ParseUpdate(city, disease string, risks []*float64, res Resolver) (Update, error) {
	profile, err := res.City(city)
	if err != nil {
		return Update{}, err
	}
	id, err := res.ResolveDisease(disease)
	if err != nil {
		return Update{}, err
	}
	if len(risks) != 12 {
		return Update{}, fmt.Errorf("%w: %s/%s: expected 12 monthly values, got %d",
			domain.ErrMalformedPayload, profile.Name, id, len(risks))
	}

	var row Row
	for m, v := range risks {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 || *v > 100 {
			return Update{}, fmt.Errorf("%w: %s/%s: month %d value %v outside [0,100]",
				domain.ErrMalformedPayload, profile.Name, id, m, *v)
		}
		row.values[m] = *v
		row.present[m] = true
	}
	return Update{City: profile.Name, Disease: id, Row: row}, nil
}
