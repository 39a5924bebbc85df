package inventory

import (
	"context"

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

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository {
	return &medicineRepoPG{pool: pool}
}

func (r *medicineRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const medicineCols = `id, name, price, active_substances, unit, quantity, description, dosage,
	instructions, usage_instructions, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Price, &m.ActiveSubstances, &m.Unit, &m.Quantity,
		&m.Description, &m.Dosage, &m.Instructions, &m.UsageInstructions,
		&m.CreatedAt, &m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "medicine not found")
	}
	return &m, err
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medicine (id, name, price, active_substances, unit, quantity, description,
			dosage, instructions, usage_instructions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		m.ID, m.Name, m.Price, m.ActiveSubstances, m.Unit, m.Quantity, m.Description,
		m.Dosage, m.Instructions, m.UsageInstructions)
	return err
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicine WHERE id = $1`, id))
}

func (r *medicineRepoPG) GetByName(ctx context.Context, name string) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicine WHERE name = $1`, name))
}

func (r *medicineRepoPG) Update(ctx context.Context, m *Medicine) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicine SET name=$2, price=$3, active_substances=$4, unit=$5, description=$6,
			dosage=$7, instructions=$8, usage_instructions=$9, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Price, m.ActiveSubstances, m.Unit, m.Description,
		m.Dosage, m.Instructions, m.UsageInstructions)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindNotFound, "medicine not found")
	}
	return nil
}

func (r *medicineRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medicine WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindNotFound, "medicine not found")
	}
	return nil
}

func (r *medicineRepoPG) Search(ctx context.Context, name string, limit, offset int) ([]*Medicine, int, error) {
	pattern := "%" + name + "%"

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medicine WHERE name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+medicineCols+` FROM medicine
		WHERE name ILIKE $1
		ORDER BY name
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

// TryDecrement runs a single conditional UPDATE so that two concurrent
// decrements can never oversell: the WHERE clause only matches while enough
// stock remains.
func (r *medicineRepoPG) TryDecrement(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicine SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2`, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Distinguish a missing medicine from an out-of-stock one.
	var current int
	err = r.conn(ctx).QueryRow(ctx, `SELECT quantity FROM medicine WHERE id = $1`, id).Scan(&current)
	if err == pgx.ErrNoRows {
		return apperr.E(apperr.KindNotFound, "medicine not found")
	}
	if err != nil {
		return err
	}
	return apperr.E(apperr.KindInsufficientStock,
		"insufficient stock: requested %d, available %d", qty, current)
}

func (r *medicineRepoPG) Restock(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicine SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1`, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindNotFound, "medicine not found")
	}
	return nil
}
