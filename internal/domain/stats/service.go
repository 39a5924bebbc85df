package stats

import (
	"context"
	"time"

	"github.com/dcclinic/clinic/internal/platform/apperr"
)

type Service struct {
	repo StatsRepository
}

func NewService(repo StatsRepository) *Service {
	return &Service{repo: repo}
}

// RecordVisit counts one examined patient in the bucket of the given time.
func (s *Service) RecordVisit(ctx context.Context, at time.Time) error {
	year, _, month := BucketKeyFor(at)
	return s.repo.IncrementPatientCount(ctx, year, month, 1)
}

// RecordRevenue adds settled revenue to the bucket of the given time.
func (s *Service) RecordRevenue(ctx context.Context, at time.Time, amount float64) error {
	if amount < 0 {
		return apperr.E(apperr.KindValidation, "revenue amount must not be negative")
	}
	year, _, month := BucketKeyFor(at)
	return s.repo.IncrementRevenue(ctx, year, month, amount)
}

func validYear(year int) error {
	if year < 2000 || year > 2200 {
		return apperr.E(apperr.KindValidation, "invalid year: %d", year)
	}
	return nil
}

// Monthly returns the raw buckets of one year for months in
// [startMonth, endMonth].
func (s *Service) Monthly(ctx context.Context, year, startMonth, endMonth int) ([]*Bucket, error) {
	if err := validYear(year); err != nil {
		return nil, err
	}
	if startMonth < 1 || endMonth > 12 || startMonth > endMonth {
		return nil, apperr.E(apperr.KindValidation, "invalid month range: %d-%d", startMonth, endMonth)
	}
	return s.repo.MonthlyRange(ctx, year, startMonth, endMonth)
}

func (s *Service) MonthBucket(ctx context.Context, year, month int) (*Bucket, error) {
	if err := validYear(year); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, apperr.E(apperr.KindValidation, "invalid month: %d", month)
	}
	return s.repo.GetBucket(ctx, year, month)
}

// Quarterly returns quarter-grouped sums of one year for quarters in
// [startQuarter, endQuarter].
func (s *Service) Quarterly(ctx context.Context, year, startQuarter, endQuarter int) ([]*QuarterTotal, error) {
	if err := validYear(year); err != nil {
		return nil, err
	}
	if startQuarter < 1 || endQuarter > 4 || startQuarter > endQuarter {
		return nil, apperr.E(apperr.KindValidation, "invalid quarter range: %d-%d", startQuarter, endQuarter)
	}
	return s.repo.QuarterlyRange(ctx, year, startQuarter, endQuarter)
}

// Yearly returns year-grouped sums for years in [startYear, endYear].
func (s *Service) Yearly(ctx context.Context, startYear, endYear int) ([]*YearTotal, error) {
	if err := validYear(startYear); err != nil {
		return nil, err
	}
	if err := validYear(endYear); err != nil {
		return nil, err
	}
	if startYear > endYear {
		return nil, apperr.E(apperr.KindValidation, "invalid year range: %d-%d", startYear, endYear)
	}
	return s.repo.YearlyRange(ctx, startYear, endYear)
}
