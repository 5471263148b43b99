package hospital

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivisit/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const hospitalCols = `id, name, image, address, phone, specialties,
	total_beds, available_beds, ambulances_available, latitude, longitude,
	created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Image, &h.Address, &h.Phone, &h.Specialties,
		&h.TotalBeds, &h.AvailableBeds, &h.AmbulancesAvailable, &h.Latitude, &h.Longitude,
		&h.CreatedAt, &h.UpdatedAt)
	return &h, err
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO hospitals (id, name, image, address, phone, specialties,
			total_beds, available_beds, ambulances_available, latitude, longitude)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		h.ID, h.Name, h.Image, h.Address, h.Phone, h.Specialties,
		h.TotalBeds, h.AvailableBeds, h.AmbulancesAvailable, h.Latitude, h.Longitude)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+hospitalCols+` FROM hospitals ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Hospital
	for rows.Next() {
		h, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	return out, total, rows.Err()
}

func (r *repoPG) SearchBySpecialty(ctx context.Context, specialty string, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM hospitals WHERE $1 = ANY(specialties)`, specialty).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+hospitalCols+` FROM hospitals WHERE $1 = ANY(specialties)
		ORDER BY name LIMIT $2 OFFSET $3`, specialty, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Hospital
	for rows.Next() {
		h, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	return out, total, rows.Err()
}

func (r *repoPG) UpdateBedCounts(ctx context.Context, id uuid.UUID, totalBeds, availableBeds int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE hospitals SET total_beds=$2, available_beds=$3, updated_at=NOW() WHERE id = $1`,
		id, totalBeds, availableBeds)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) UpdateAmbulanceCount(ctx context.Context, id uuid.UUID, available int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE hospitals SET ambulances_available=$2, updated_at=NOW() WHERE id = $1`,
		id, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
