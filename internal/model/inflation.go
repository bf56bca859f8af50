package model

import (
	"strings"
	"time"
)

// InflationTrend describes the direction of the rate relative to the previous snapshot.
type InflationTrend string

const (
	// TrendUp means the rate rose more than one point since the previous snapshot.
	TrendUp InflationTrend = "up"
	// TrendDown means the rate fell more than one point since the previous snapshot.
	TrendDown InflationTrend = "down"
	// TrendStable means the rate moved at most one point.
	TrendStable InflationTrend = "stable"
)

// InflationRecord is a dated snapshot of inflation rates. Snapshots are keyed by
// date: writing the same date again replaces the earlier snapshot. The record with
// the most recent date is "current".
type InflationRecord struct {
	Date          time.Time
	Source        string
	Trend         InflationTrend
	CategoryRates map[string]float64
	OverallRate   float64
	PredictedRate *float64
}

// RateFor resolves the rate for a category name, falling back to the overall rate
// when no category-specific rate is recorded. Keys are stored lowercased.
func (r *InflationRecord) RateFor(category string) float64 {
	if rate, ok := r.CategoryRates[strings.ToLower(category)]; ok {
		return rate
	}
	return r.OverallRate
}
