// Package domain models climate-correlated disease risk.
//
// # Data Tiers
//
// A risk value for a (city, disease, month) triple comes from one of three tiers:
//
//	Authoritative: a precomputed historical risk table, refreshed out-of-band.
//	               Treated as ground truth when a record exists.
//	Simulation:    climatology plus a fixed additive heuristic, used when the
//	               authoritative table has no record for the triple.
//	Model:         an upstream multi-month forecast, used only by forecasts and
//	               preferred there when it covers the month offset.
//
// Live weather observations never select a tier. They only adjust the current
// calendar month: upward on the authoritative tier, or by replacing the
// climatology inputs on the simulation tier.
//
// # Months
//
// Month indexes are zero-based (0 = January, 11 = December). Forecast sequences
// start at the current month and wrap modulo 12.
//
// # Risk Tiers
//
//	Low:    risk < 40
//	Medium: 40 <= risk <= 70
//	High:   risk > 70
//
// All risk values are clamped to [0, 100]. See [ClampRisk] and [TierFor].
//
// # Disease Identity
//
// [DiseaseID] is the single canonical key for a disease. Display names
// ("Heat Stroke", "Respiratory Diseases") and aliases used by external feeds are
// mapped to it when a feed is loaded, never at lookup time.
package domain
