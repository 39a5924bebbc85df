package prescribing

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

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, doctor_id, patient_id, appointment_id, symptoms, conclusion)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.DoctorID, p.PatientID, p.AppointmentID, p.Symptoms, p.Conclusion)
	if err != nil {
		return err
	}

	for _, item := range p.Items {
		item.ID = uuid.New()
		item.PrescriptionID = p.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO prescribed_medicine (id, prescription_id, medicine_id, instructions,
				usage_instructions, quantity, days, unit_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			item.ID, item.PrescriptionID, item.MedicineID, item.Instructions,
			item.UsageInstructions, item.Quantity, item.Days, item.UnitPrice)
		if err != nil {
			return err
		}
	}
	return nil
}

const prescriptionCols = `id, doctor_id, patient_id, appointment_id, symptoms, conclusion, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.DoctorID, &p.PatientID, &p.AppointmentID, &p.Symptoms,
		&p.Conclusion, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "prescription not found")
	}
	return &p, err
}

func (r *prescriptionRepoPG) loadItems(ctx context.Context, p *Prescription) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT pm.id, pm.prescription_id, pm.medicine_id, m.name, pm.instructions,
			pm.usage_instructions, pm.quantity, pm.days, pm.unit_price
		FROM prescribed_medicine pm
		JOIN medicine m ON m.id = pm.medicine_id
		WHERE pm.prescription_id = $1`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item PrescribedMedicine
		if err := rows.Scan(&item.ID, &item.PrescriptionID, &item.MedicineID, &item.MedicineName,
			&item.Instructions, &item.UsageInstructions, &item.Quantity, &item.Days,
			&item.UnitPrice); err != nil {
			return err
		}
		p.Items = append(p.Items, &item)
	}
	return nil
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *prescriptionRepoPG) list(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM prescription WHERE %s = $1`, column), id).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(`
		SELECT %s FROM prescription WHERE %s = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, prescriptionCols, column), id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	rows.Close()

	for _, p := range items {
		if err := r.loadItems(ctx, p); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *prescriptionRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return r.list(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return r.list(ctx, "patient_id", patientID, limit, offset)
}

func (r *prescriptionRepoPG) AddHistory(ctx context.Context, h *HistoryEntry) error {
	h.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_history (id, patient_id, doctor_id, appointment_id, prescription_id,
			symptoms, conclusion)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		h.ID, h.PatientID, h.DoctorID, h.AppointmentID, h.PrescriptionID, h.Symptoms, h.Conclusion)
	return err
}

func (r *prescriptionRepoPG) HistoryByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time, limit, offset int) ([]*HistoryEntry, int, error) {
	where := `patient_id = $1`
	args := []interface{}{patientID}
	if from != nil {
		args = append(args, *from)
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		where += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_history WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, patient_id, doctor_id, appointment_id, prescription_id, symptoms, conclusion, created_at
		FROM medical_history WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.PatientID, &h.DoctorID, &h.AppointmentID, &h.PrescriptionID,
			&h.Symptoms, &h.Conclusion, &h.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &h)
	}
	return items, total, nil
}
