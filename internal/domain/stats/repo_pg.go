package stats

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcclinic/clinic/internal/platform/apperr"
	"github.com/dcclinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type statsRepoPG struct{ pool *pgxpool.Pool }

func NewStatsRepoPG(pool *pgxpool.Pool) StatsRepository {
	return &statsRepoPG{pool: pool}
}

func (r *statsRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *statsRepoPG) IncrementPatientCount(ctx context.Context, year, month, delta int) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO statistics (year, quarter, month, patient_count, revenue)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (year, month)
		DO UPDATE SET patient_count = statistics.patient_count + $4`,
		year, QuarterOf(month), month, delta)
	return err
}

func (r *statsRepoPG) IncrementRevenue(ctx context.Context, year, month int, amount float64) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO statistics (year, quarter, month, patient_count, revenue)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (year, month)
		DO UPDATE SET revenue = statistics.revenue + $4`,
		year, QuarterOf(month), month, amount)
	return err
}

func (r *statsRepoPG) GetBucket(ctx context.Context, year, month int) (*Bucket, error) {
	var b Bucket
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT year, quarter, month, patient_count, revenue
		FROM statistics WHERE year = $1 AND month = $2`, year, month).
		Scan(&b.Year, &b.Quarter, &b.Month, &b.PatientCount, &b.Revenue)
	if err == pgx.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "no statistics for %d-%02d", year, month)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *statsRepoPG) MonthlyRange(ctx context.Context, year, startMonth, endMonth int) ([]*Bucket, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT year, quarter, month, patient_count, revenue
		FROM statistics WHERE year = $1 AND month BETWEEN $2 AND $3
		ORDER BY month`, year, startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Bucket
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Year, &b.Quarter, &b.Month, &b.PatientCount, &b.Revenue); err != nil {
			return nil, err
		}
		items = append(items, &b)
	}
	return items, nil
}

func (r *statsRepoPG) QuarterlyRange(ctx context.Context, year, startQuarter, endQuarter int) ([]*QuarterTotal, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT year, quarter, SUM(patient_count), SUM(revenue)
		FROM statistics WHERE year = $1 AND quarter BETWEEN $2 AND $3
		GROUP BY year, quarter
		ORDER BY quarter`, year, startQuarter, endQuarter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*QuarterTotal
	for rows.Next() {
		var q QuarterTotal
		if err := rows.Scan(&q.Year, &q.Quarter, &q.PatientCount, &q.Revenue); err != nil {
			return nil, err
		}
		items = append(items, &q)
	}
	return items, nil
}

func (r *statsRepoPG) YearlyRange(ctx context.Context, startYear, endYear int) ([]*YearTotal, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT year, SUM(patient_count), SUM(revenue)
		FROM statistics WHERE year BETWEEN $1 AND $2
		GROUP BY year
		ORDER BY year`, startYear, endYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*YearTotal
	for rows.Next() {
		var y YearTotal
		if err := rows.Scan(&y.Year, &y.PatientCount, &y.Revenue); err != nil {
			return nil, err
		}
		items = append(items, &y)
	}
	return items, nil
}
