// Package stats maintains per-month aggregates of patient visits and revenue.
// Buckets are keyed by calendar month and updated with atomic upserts, so a
// bucket springs into existence on its first increment.
package stats

import "time"

// Bucket is the monthly aggregate row. Quarter is derived from Month and
// stored alongside it so quarterly roll-ups stay a plain GROUP BY.
type Bucket struct {
	Year         int     `json:"year"`
	Quarter      int     `json:"quarter"`
	Month        int     `json:"month"`
	PatientCount int     `json:"patient_count"`
	Revenue      float64 `json:"revenue"`
}

// QuarterOf returns the calendar quarter (1-4) for a month (1-12).
func QuarterOf(month int) int {
	return (month-1)/3 + 1
}

// BucketKeyFor returns the (year, quarter, month) key for a point in time.
func BucketKeyFor(t time.Time) (year, quarter, month int) {
	year = t.Year()
	month = int(t.Month())
	quarter = QuarterOf(month)
	return year, quarter, month
}

// QuarterTotal is a quarterly roll-up of monthly buckets.
type QuarterTotal struct {
	Year         int     `json:"year"`
	Quarter      int     `json:"quarter"`
	PatientCount int     `json:"patient_count"`
	Revenue      float64 `json:"revenue"`
}

// YearTotal is a yearly roll-up of monthly buckets.
type YearTotal struct {
	Year         int     `json:"year"`
	PatientCount int     `json:"patient_count"`
	Revenue      float64 `json:"revenue"`
}
