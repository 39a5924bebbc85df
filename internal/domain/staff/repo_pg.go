package staff

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

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

func (r *profileRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const profileCols = `id, user_id, kind, full_name, email, phone, gender, birth_date, address,
	speciality, faculty, insurance_no, active, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Kind, &p.FullName, &p.Email, &p.Phone, &p.Gender,
		&p.BirthDate, &p.Address, &p.Speciality, &p.Faculty, &p.InsuranceNo,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "profile not found")
	}
	return &p, err
}

func (r *profileRepoPG) Create(ctx context.Context, p *Profile) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO profile (id, user_id, kind, full_name, email, phone, gender, birth_date, address,
			speciality, faculty, insurance_no, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.UserID, p.Kind, p.FullName, p.Email, p.Phone, p.Gender, p.BirthDate, p.Address,
		p.Speciality, p.Faculty, p.InsuranceNo, p.Active)
	return err
}

func (r *profileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM profile WHERE id = $1`, id))
}

func (r *profileRepoPG) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM profile WHERE user_id = $1`, userID))
}

func (r *profileRepoPG) Update(ctx context.Context, p *Profile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE profile SET full_name=$2, email=$3, phone=$4, gender=$5, birth_date=$6, address=$7,
			speciality=$8, faculty=$9, insurance_no=$10, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.Email, p.Phone, p.Gender, p.BirthDate, p.Address,
		p.Speciality, p.Faculty, p.InsuranceNo)
	return err
}

func (r *profileRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE profile SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindNotFound, "profile not found")
	}
	return nil
}

func (r *profileRepoPG) ListByKind(ctx context.Context, kind ProfileKind, limit, offset int) ([]*Profile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM profile WHERE kind = $1 AND active`, kind).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+profileCols+` FROM profile
		WHERE kind = $1 AND active
		ORDER BY full_name
		LIMIT $2 OFFSET $3`, kind, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
