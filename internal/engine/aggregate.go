package engine

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
)

// ComparisonMonths is the default span of DiseaseComparison.
const ComparisonMonths = 6

// RegionalRanking ranks every registered city by current-month risk.
func (e *Engine) RegionalRanking(disease string) ([]domain.RankingEntry, error) {
	return e.RankCities(disease, e.CurrentMonth())
}

// RankCities ranks every registered city by risk for month, highest first.
// Equal risks keep alphabetical city order. Each entry carries the following
// month's risk and the trend towards it.
func (e *Engine) RankCities(disease string, month int) ([]domain.RankingEntry, error) {
	d, err := e.registry.Disease(disease)
	if err != nil {
		return nil, err
	}
	if month < 0 || month > 11 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidMonth, month)
	}

	next := domain.NormalizeMonth(month + 1)
	cities := e.registry.Cities()
	sort.Strings(cities)

	entries := make([]domain.RankingEntry, 0, len(cities))
	for _, name := range cities {
		c, err := e.registry.City(name)
		if err != nil {
			return nil, err
		}
		cur := e.assess(query{city: c, disease: d, month: month})
		nxt := e.assess(query{city: c, disease: d, month: next})
		entries = append(entries, domain.RankingEntry{
			City:          c.Name,
			Risk:          cur.Value,
			NextMonthRisk: nxt.Value,
			Trend:         domain.TrendOf(cur.Value, nxt.Value),
			Tier:          cur.Tier,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Risk > entries[j].Risk })
	return entries, nil
}

// DiseaseComparison compares every registered disease in city over the next
// ComparisonMonths months, starting with the current one.
func (e *Engine) DiseaseComparison(city string) ([]domain.ComparisonRow, error) {
	return e.CompareDiseases(city, ComparisonMonths)
}

// CompareDiseases returns one row per month offset holding every registered
// disease's risk for that month. Diseases do not interact.
func (e *Engine) CompareDiseases(city string, months int) ([]domain.ComparisonRow, error) {
	c, err := e.registry.City(city)
	if err != nil {
		return nil, err
	}
	if months < 1 || months > MaxHorizon {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidHorizon, months)
	}

	ids := e.registry.Diseases()
	profiles := make([]domain.DiseaseProfile, 0, len(ids))
	for _, id := range ids {
		d, err := e.registry.Disease(string(id))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, d)
	}

	start := e.CurrentMonth()
	rows := make([]domain.ComparisonRow, months)
	for i := range rows {
		month := domain.NormalizeMonth(start + i)
		row := domain.ComparisonRow{
			Month:      domain.MonthLabel(month),
			MonthIndex: month,
			Risks:      make(map[domain.DiseaseID]float64, len(profiles)),
		}
		for _, d := range profiles {
			row.Risks[d.ID] = e.assess(query{city: c, disease: d, month: month}).Value
		}
		rows[i] = row
	}
	return rows, nil
}
