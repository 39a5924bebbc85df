package scheduling

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

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const appointmentCols = `id, patient_id, doctor_id, nurse_id, scheduled_time, reason,
	confirmed, examined, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.NurseID, &a.ScheduledTime, &a.Reason,
		&a.Confirmed, &a.Examined, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "appointment not found")
	}
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, nurse_id, scheduled_time, reason,
			confirmed, examined)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.DoctorID, a.NurseID, a.ScheduledTime, a.Reason,
		a.Confirmed, a.Examined)
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Confirm(ctx context.Context, id, doctorID, nurseID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET doctor_id = $2, nurse_id = $3, confirmed = TRUE, updated_at = NOW()
		WHERE id = $1`, id, doctorID, nurseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindNotFound, "appointment not found")
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindNotFound, "appointment not found")
	}
	return nil
}

// MarkExamined only matches rows where the flag is still clear, so a second
// prescription attempt for the same appointment fails here.
func (r *appointmentRepoPG) MarkExamined(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET examined = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT examined`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var examined bool
	err = r.conn(ctx).QueryRow(ctx, `SELECT examined FROM appointment WHERE id = $1`, id).Scan(&examined)
	if err == pgx.ErrNoRows {
		return apperr.E(apperr.KindNotFound, "appointment not found")
	}
	if err != nil {
		return err
	}
	return apperr.E(apperr.KindAlreadyExamined, "appointment already examined")
}

// ReserveDailySlot upserts the day counter in one statement. The conditional
// update only matches while booked is below cap, so concurrent bookings can
// never exceed it.
func (r *appointmentRepoPG) ReserveDailySlot(ctx context.Context, day time.Time, cap int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment_day (day, booked) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET booked = appointment_day.booked + 1
		WHERE appointment_day.booked < $2`, day, cap)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindCapacityExceeded, "Maximum appointments for today exceeded")
	}
	return nil
}

func (r *appointmentRepoPG) ReleaseDailySlot(ctx context.Context, day time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment_day SET booked = booked - 1
		WHERE day = $1 AND booked > 0`, day)
	return err
}

func (r *appointmentRepoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM appointment WHERE %s ORDER BY scheduled_time LIMIT $%d OFFSET $%d`,
		appointmentCols, where, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *appointmentRepoPG) ListUnconfirmed(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `NOT confirmed`, nil, limit, offset)
}

func (r *appointmentRepoPG) ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `doctor_id = $1 AND confirmed AND NOT examined`, []interface{}{doctorID}, limit, offset)
}
