// Package riskdata holds the authoritative precomputed risk table: historical
// risk values keyed by (city, disease, month). Absence of a value is expected
// and is reported as a miss, never as an error.
package riskdata

import (
	"sort"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
)

// Row is the twelve monthly risk values of one (city, disease) pair. Months
// without an authoritative record are absent.
type Row struct {
	values  [12]float64
	present [12]bool
}

// At returns the value for month and whether it is present.
func (r Row) At(month int) (float64, bool) {
	if month < 0 || month > 11 {
		return 0, false
	}
	return r.values[month], r.present[month]
}

// Count returns the number of months with a value.
func (r Row) Count() int {
	n := 0
	for _, ok := range r.present {
		if ok {
			n++
		}
	}
	return n
}

// Key identifies a row by canonical city name and disease id.
type Key struct {
	City    string
	Disease domain.DiseaseID
}

// Update replaces the row for one (city, disease) pair.
type Update struct {
	City    string
	Disease domain.DiseaseID
	Row     Row
}

// Table is an immutable set of rows. Use With to derive an updated copy.
type Table struct {
	rows map[Key]Row
}

// NewTable builds a table from updates. Later updates for the same pair win.
func NewTable(updates ...Update) *Table {
	t := &Table{rows: make(map[Key]Row, len(updates))}
	for _, u := range updates {
		t.rows[Key{City: u.City, Disease: u.Disease}] = u.Row
	}
	return t
}

// Lookup returns the authoritative value for (city, disease, month), if any.
func (t *Table) Lookup(city string, disease domain.DiseaseID, month int) (float64, bool) {
	if t == nil {
		return 0, false
	}
	row, ok := t.rows[Key{City: city, Disease: disease}]
	if !ok {
		return 0, false
	}
	return row.At(month)
}

// With returns a copy of t with the updates applied. t is not modified.
func (t *Table) With(updates ...Update) *Table {
	next := &Table{rows: make(map[Key]Row, t.Len()+len(updates))}
	if t != nil {
		for k, v := range t.rows {
			next.rows[k] = v
		}
	}
	for _, u := range updates {
		next.rows[Key{City: u.City, Disease: u.Disease}] = u.Row
	}
	return next
}

// Len returns the number of (city, disease) rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Coverage is the number of authoritative months held for one row.
type Coverage struct {
	City    string
	Disease domain.DiseaseID
	Months  int
}

// Coverage lists every row with its month count, sorted by city then disease.
func (t *Table) Coverage() []Coverage {
	if t == nil {
		return nil
	}
	out := make([]Coverage, 0, len(t.rows))
	for k, row := range t.rows {
		out = append(out, Coverage{City: k.City, Disease: k.Disease, Months: row.Count()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		return out[i].Disease < out[j].Disease
	})
	return out
}
