package domain

import (
	"strings"
	"time"
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// NormalizeMonth wraps any integer onto 0-11.
func NormalizeMonth(month int) int {
	return ((month % 12) + 12) % 12
}

// MonthLabel returns the short English label for a zero-based month index.
func MonthLabel(month int) string {
	return monthLabels[NormalizeMonth(month)]
}

// MonthOf returns the zero-based month index of t.
func MonthOf(t time.Time) int {
	return int(t.Month()) - 1
}

// ParseMonthLabel maps a month label onto its zero-based index. Matching is
// case-insensitive on the first three letters, so "Aug", "AUG" and "August"
// all resolve to 7.
func ParseMonthLabel(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if len(label) < 3 {
		return 0, false
	}
	for m, l := range monthLabels {
		if strings.EqualFold(label[:3], l) {
			return m, true
		}
	}
	return 0, false
}
