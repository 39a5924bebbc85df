package stats

import "context"

type StatsRepository interface {
	// IncrementPatientCount adds delta to the bucket for (year, month),
	// creating the bucket when absent.
	IncrementPatientCount(ctx context.Context, year, month, delta int) error

	// IncrementRevenue adds amount to the bucket for (year, month), creating
	// the bucket when absent.
	IncrementRevenue(ctx context.Context, year, month int, amount float64) error

	GetBucket(ctx context.Context, year, month int) (*Bucket, error)

	// MonthlyRange returns the raw buckets of one year whose month falls in
	// [startMonth, endMonth].
	MonthlyRange(ctx context.Context, year, startMonth, endMonth int) ([]*Bucket, error)

	// QuarterlyRange returns quarter-grouped sums of one year for quarters in
	// [startQuarter, endQuarter].
	QuarterlyRange(ctx context.Context, year, startQuarter, endQuarter int) ([]*QuarterTotal, error)

	// YearlyRange returns year-grouped sums for years in [startYear, endYear].
	YearlyRange(ctx context.Context, startYear, endYear int) ([]*YearTotal, error)
}
