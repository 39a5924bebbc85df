package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
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

type paymentRepoPG struct{ pool *pgxpool.Pool }

func NewPaymentRepoPG(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepoPG{pool: pool}
}

func (r *paymentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const paymentCols = `id, patient_id, prescription_id, nurse_id, subtotal, fee, total, method,
	settled, created_at, settled_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.PatientID, &p.PrescriptionID, &p.NurseID, &p.Subtotal, &p.Fee,
		&p.Total, &p.Method, &p.Settled, &p.CreatedAt, &p.SettledAt)
	if err == pgx.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "payment not found")
	}
	return &p, err
}

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment (id, patient_id, prescription_id, subtotal, fee, total, method, settled)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.PatientID, p.PrescriptionID, p.Subtotal, p.Fee, p.Total, p.Method, p.Settled)
	return err
}

func (r *paymentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return scanPayment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+paymentCols+` FROM payment WHERE id = $1`, id))
}

func (r *paymentRepoPG) GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Payment, error) {
	return scanPayment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+paymentCols+` FROM payment WHERE prescription_id = $1`, prescriptionID))
}

// Settle overwrites fee, total and method. Repeating a settlement replaces
// the previous values rather than failing.
func (r *paymentRepoPG) Settle(ctx context.Context, p *Payment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE payment SET nurse_id = $2, subtotal = $3, fee = $4, total = $5, method = $6,
			settled = TRUE, settled_at = NOW()
		WHERE id = $1`,
		p.ID, p.NurseID, p.Subtotal, p.Fee, p.Total, p.Method)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindNotFound, "payment not found")
	}
	return nil
}

// PrescribedAt returns the scheduled time of the appointment behind a
// prescription. Statistics buckets are keyed by that time, not by when the
// nurse settles.
func (r *paymentRepoPG) PrescribedAt(ctx context.Context, prescriptionID uuid.UUID) (time.Time, error) {
	var at time.Time
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT a.scheduled_time FROM prescription p
		JOIN appointment a ON a.id = p.appointment_id
		WHERE p.id = $1`, prescriptionID).Scan(&at)
	if err == pgx.ErrNoRows {
		return time.Time{}, apperr.E(apperr.KindNotFound, "prescription not found")
	}
	return at, err
}

func (r *paymentRepoPG) LineItems(ctx context.Context, prescriptionID uuid.UUID) ([]LineItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT unit_price, quantity FROM prescribed_medicine
		WHERE prescription_id = $1`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LineItem
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.UnitPrice, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *paymentRepoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Payment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM payment WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM payment WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		paymentCols, where, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *paymentRepoPG) ListUnsettled(ctx context.Context, limit, offset int) ([]*Payment, int, error) {
	return r.list(ctx, `NOT settled`, nil, limit, offset)
}

func (r *paymentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	return r.list(ctx, `patient_id = $1`, []interface{}{patientID}, limit, offset)
}
